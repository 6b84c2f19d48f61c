package repositories

import (
	"fmt"
	"testing"

	"github.com/otabek42/blogium/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database migrated with the relational
// models. Each test gets its own database, named after the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
		&models.EmailVerificationCode{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, email string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: email, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user %d: %v", id, err)
	}
	return user
}
