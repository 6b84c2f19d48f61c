package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

// newRequestContext builds an Echo context for a JSON request. A non-zero
// userID is attached the way the JWT middleware would.
func newRequestContext(e *echo.Echo, method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

// recordingMailer captures outgoing codes instead of dialing SMTP
type recordingMailer struct {
	verificationCodes map[string]string
	resetCodes        map[string]string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		verificationCodes: make(map[string]string),
		resetCodes:        make(map[string]string),
	}
}

func (m *recordingMailer) SendVerificationCode(to, code string) error {
	m.verificationCodes[to] = code
	return nil
}

func (m *recordingMailer) SendPasswordResetCode(to, code string) error {
	m.resetCodes[to] = code
	return nil
}

// httpStatus extracts the status from a handler error or the recorder
func httpStatus(err error, rec *httptest.ResponseRecorder) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return rec.Code
}
