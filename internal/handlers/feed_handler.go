package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// FeedHandler serves the authenticated user's home feed
type FeedHandler struct {
	postRepository   repositories.PostRepository
	followRepository repositories.FollowRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, followRepo repositories.FollowRepository) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		followRepository: followRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns posts from the users the caller follows, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	followingIDs, err := h.followRepository.GetFollowingIDs(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, limit := pagination(c)

	posts := []models.Post{}
	if len(followingIDs) > 0 {
		posts, err = h.postRepository.GetPostsByAuthorIDs(c.Request().Context(), followingIDs, (page-1)*limit, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch feed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": posts,
		"page":  page,
		"limit": limit,
	})
}
