package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/fanout"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// FollowHandler handles follow relationship HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	orchestrator     *fanout.Orchestrator
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	orchestrator *fanout.Orchestrator,
) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		orchestrator:     orchestrator,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.GET("/users/:id/follow-status", h.FollowStatus)
}

// Follow makes the authenticated user follow the target user
func (h *FollowHandler) Follow(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if uint(targetID) == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself")
	}

	target, err := h.userRepository.GetUserByID(uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	already, err := h.followRepository.IsFollowing(userID, target.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if already {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: userID, FollowingID: target.ID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	actor, err := h.userRepository.GetUserByID(userID)
	if err == nil {
		if err := h.orchestrator.NotifyFollow(actor, target.ID); err != nil {
			log.Printf("failed to notify user %d about new follower: %v", target.ID, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"detail": "Now following " + target.DisplayName()})
}

// Unfollow removes the follow relationship to the target user
func (h *FollowHandler) Unfollow(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.followRepository.DeleteFollow(userID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "You are not following this user")
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Unfollowed"})
}

// FollowStatus reports whether the authenticated user follows the target
func (h *FollowHandler) FollowStatus(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	following, err := h.followRepository.IsFollowing(userID, uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"is_following": following})
}
