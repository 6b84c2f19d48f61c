package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/profile/followers", h.GetOwnFollowers)
	g.GET("/profile/following", h.GetOwnFollowing)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUserByID)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// profileResponse builds the public view of a user with follow counts
func (h *UserHandler) profileResponse(user *models.User) (echo.Map, error) {
	followers, err := h.followRepository.GetFollowersCount(user.ID)
	if err != nil {
		return nil, err
	}
	following, err := h.followRepository.GetFollowingCount(user.ID)
	if err != nil {
		return nil, err
	}
	return echo.Map{
		"user":            user,
		"followers_count": followers,
		"following_count": following,
	}, nil
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	resp, err := h.profileResponse(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateProfile updates the authenticated user's profile fields
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// GetUserByID returns a user's public profile by ID
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.userRepository.GetUserByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	resp, err := h.profileResponse(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// SearchUsers searches active users by name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	results := make([]models.UserCompact, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToCompact())
	}

	return c.JSON(http.StatusOK, echo.Map{"users": results})
}

// GetOwnFollowers lists users following the authenticated user
func (h *UserHandler) GetOwnFollowers(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return h.listFollowers(c, userID, "followers")
}

// GetOwnFollowing lists users the authenticated user follows
func (h *UserHandler) GetOwnFollowing(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return h.listFollowers(c, userID, "following")
}

func (h *UserHandler) listFollowers(c echo.Context, userID uint, direction string) error {
	var (
		users []models.User
		err   error
	)
	if direction == "followers" {
		users, err = h.followRepository.GetFollowers(userID)
	} else {
		users, err = h.followRepository.GetFollowing(userID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	results := make([]models.UserCompact, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, echo.Map{direction: results})
}

// GetFollowers lists users following the given user
func (h *UserHandler) GetFollowers(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	return h.listFollowers(c, uint(id), "followers")
}

// GetFollowing lists users the given user follows
func (h *UserHandler) GetFollowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	return h.listFollowers(c, uint(id), "following")
}
