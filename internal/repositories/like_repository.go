package repositories

import (
	"fmt"

	"github.com/otabek42/blogium/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(postID string, userID uint) error
	HasUserLikedPost(postID string, userID uint) (bool, error)
	GetLikesCountByPostID(postID string) (int64, error)
	GetUserIDsByPostID(postID string) ([]uint, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like in PostgreSQL
func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	return r.db.Create(like).Error
}

// DeleteLike deletes a like for a post/user pair from PostgreSQL
func (r *PostgresLikeRepository) DeleteLike(postID string, userID uint) error {
	// Hard delete, so the unique (post, user) index does not block a re-like
	res := r.db.Unscoped().Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("like not found")
	}
	return nil
}

// HasUserLikedPost checks whether the user already liked the post
func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikesCountByPostID returns the number of likes on a post
func (r *PostgresLikeRepository) GetLikesCountByPostID(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// GetUserIDsByPostID returns the IDs of users who liked a post
func (r *PostgresLikeRepository) GetUserIDsByPostID(postID string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Pluck("user_id", &ids).Error
	return ids, err
}
