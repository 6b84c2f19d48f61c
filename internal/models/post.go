package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a blog post stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	Title         string             `json:"title" bson:"title"`
	Slug          string             `json:"slug" bson:"slug"` // Unique, derived from the title
	Content       string             `json:"content" bson:"content"`
	Views         int64              `json:"views" bson:"views"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	IsDeleted     bool               `json:"-" bson:"is_deleted"`
	DeletedAt     *time.Time         `json:"-" bson:"deleted_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=100"`
	Content string `json:"content" validate:"required,min=1"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title   string `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Content string `json:"content,omitempty" validate:"omitempty,min=1"`
}
