package handlers

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"net/http"
	"os"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
	"github.com/otabek42/blogium/backend/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Verification codes are valid for this long after issue
const verificationCodeTTL = 10 * time.Minute

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository      repositories.UserRepository
	emailCodeRepository repositories.EmailCodeRepository
	mail                mailer.Mailer
	firebaseAuth        *auth.Client
	jwtSecret           string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userRepo repositories.UserRepository,
	emailCodeRepo repositories.EmailCodeRepository,
	mail mailer.Mailer,
	firebaseAuthClient *auth.Client,
) *AuthHandler {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "supersecretjwtkey"
	}
	return &AuthHandler{
		userRepository:      userRepo,
		emailCodeRepository: emailCodeRepo,
		mail:                mail,
		firebaseAuth:        firebaseAuthClient,
		jwtSecret:           jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/verify-email", h.VerifyEmail)
	g.POST("/signin", h.SignIn)
	g.POST("/password-reset", h.RequestPasswordReset)
	g.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// generateCode produces a random 6-digit verification code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := n.Int64()
	digits := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		digits[i] = byte('0' + code%10)
		code /= 10
	}
	return string(digits), nil
}

// issueCode stores and mails a fresh verification code for the user
func (h *AuthHandler) issueCode(user *models.User, purpose string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	vc := &models.EmailVerificationCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	}
	if err := h.emailCodeRepository.CreateCode(vc); err != nil {
		return err
	}

	if purpose == models.PurposeResetPassword {
		return h.mail.SendPasswordResetCode(user.Email, code)
	}
	return h.mail.SendVerificationCode(user.Email, code)
}

// Signup registers a local user. The account stays inactive until the mailed
// verification code is confirmed.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Check if user with this email already exists
	_, err := h.userRepository.GetUserByEmail(req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      "user",
		IsActive:  false,
	}

	if err := h.userRepository.CreateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.issueCode(user, models.PurposeRegister); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send verification code")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user":   user,
		"detail": "Registered. A verification code was sent to your email.",
	})
}

// VerifyEmail activates an account with the mailed code
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req models.VerifyEmailRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	vc, err := h.emailCodeRepository.GetValidCode(user.ID, req.Code, models.PurposeRegister)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification code")
	}

	user.IsActive = true
	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.emailCodeRepository.MarkUsed(vc.ID); err != nil {
		log.Printf("failed to mark verification code used: %v", err)
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Retrieve user by email
	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Email or password is incorrect")
	}

	// Compare passwords
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Email or password is incorrect")
	}

	// Unverified accounts cannot sign in
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "Account is not active. Please verify your email.")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// RequestPasswordReset mails a reset code to the account's email. The
// response does not reveal whether the email exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req models.PasswordResetRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err == nil {
		if err := h.issueCode(user, models.PurposeResetPassword); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send reset code")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "If the email is registered, a reset code was sent."})
}

// ConfirmPasswordReset sets a new password given a valid reset code
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req models.PasswordResetConfirmRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired reset code")
	}

	vc, err := h.emailCodeRepository.GetValidCode(user.ID, req.Code, models.PurposeResetPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired reset code")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user.Password = string(hashedPassword)
	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.emailCodeRepository.MarkUsed(vc.ID); err != nil {
		log.Printf("failed to mark reset code used: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Password updated. You can sign in now."})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Verify Firebase ID token
	token, err := h.firebaseAuth.VerifyIDToken(context.Background(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Firebase token has no email claim")
	}

	// Try to find user by Firebase UID, then by email, creating one if needed
	user, err := h.userRepository.GetUserByFirebaseUID(firebaseUID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
		user, err = h.userRepository.GetUserByEmail(email)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
			}
			// New user; Firebase already verified the email address
			newUser := &models.User{
				Email:       email,
				FirebaseUID: firebaseUID,
				Role:        "user",
				IsActive:    true,
			}
			if err := h.userRepository.CreateUser(newUser); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
			}
			user = newUser
		} else {
			// User found by email, link the Firebase UID
			user.FirebaseUID = firebaseUID
			if err := h.userRepository.UpdateUser(user); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user with Firebase UID")
			}
		}
	}

	localJWT, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": localJWT})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)), // Token expires in 72 hours
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", err
	}
	return t, nil
}
