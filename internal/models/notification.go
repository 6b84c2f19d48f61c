package models

import "time"

// Notification verbs
const (
	VerbNewPost     = "new_post"
	VerbNewFollower = "new_follower"
	VerbPostLiked   = "post_liked"
	VerbNewComment  = "new_comment"
)

// Notification represents a durable per-recipient notification record.
// Live WebSocket delivery is best effort; this row is the system of record.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	PostID      string    `json:"post_id,omitempty"` // Subject reference, empty for follow notifications
	Verb        string    `json:"verb" gorm:"size:30;index"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
