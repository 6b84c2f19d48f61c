package repositories

import (
	"time"

	"github.com/otabek42/blogium/backend/internal/models"
	"gorm.io/gorm"
)

// EmailCodeRepository defines the interface for email verification code operations
type EmailCodeRepository interface {
	CreateCode(code *models.EmailVerificationCode) error
	GetValidCode(userID uint, code, purpose string) (*models.EmailVerificationCode, error)
	MarkUsed(id uint) error
}

// PostgresEmailCodeRepository implements EmailCodeRepository for PostgreSQL
type PostgresEmailCodeRepository struct {
	db *gorm.DB
}

// NewPostgresEmailCodeRepository creates a new PostgresEmailCodeRepository
func NewPostgresEmailCodeRepository(db *gorm.DB) *PostgresEmailCodeRepository {
	return &PostgresEmailCodeRepository{db: db}
}

// CreateCode stores a freshly issued verification code
func (r *PostgresEmailCodeRepository) CreateCode(code *models.EmailVerificationCode) error {
	return r.db.Create(code).Error
}

// GetValidCode retrieves an unused, unexpired code for the user and purpose
func (r *PostgresEmailCodeRepository) GetValidCode(userID uint, code, purpose string) (*models.EmailVerificationCode, error) {
	var vc models.EmailVerificationCode
	err := r.db.Where("user_id = ? AND code = ? AND purpose = ? AND is_used = ? AND expires_at > ?",
		userID, code, purpose, false, time.Now()).
		Order("created_at DESC").
		First(&vc).Error
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// MarkUsed invalidates a code after successful verification
func (r *PostgresEmailCodeRepository) MarkUsed(id uint) error {
	return r.db.Model(&models.EmailVerificationCode{}).Where("id = ?", id).Update("is_used", true).Error
}
