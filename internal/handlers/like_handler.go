package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/fanout"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// LikeHandler handles post like HTTP requests
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	orchestrator   *fanout.Orchestrator
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	orchestrator *fanout.Orchestrator,
) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		orchestrator:   orchestrator,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/like-status", h.LikeStatus)
}

// LikePost records a like and notifies the post's author
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	liked, err := h.likeRepository.HasUserLikedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if liked {
		return echo.NewHTTPError(http.StatusConflict, "You already liked this post")
	}

	like := &models.Like{PostID: postID, UserID: userID}
	if err := h.likeRepository.CreateLike(like); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.IncrementLikesCount(c.Request().Context(), postID); err != nil {
		log.Printf("failed to increment likes count for post %s: %v", postID, err)
	}

	actor, err := h.userRepository.GetUserByID(userID)
	if err == nil {
		if err := h.orchestrator.NotifyPostLiked(actor, post); err != nil {
			log.Printf("failed to notify author of post %s about like: %v", postID, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"detail": "Post liked"})
}

// UnlikePost removes the authenticated user's like from a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	postID := c.Param("id")

	if err := h.likeRepository.DeleteLike(postID, userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "You have not liked this post")
	}

	if err := h.postRepository.DecrementLikesCount(c.Request().Context(), postID); err != nil {
		log.Printf("failed to decrement likes count for post %s: %v", postID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Like removed"})
}

// LikeStatus reports the like count and whether the caller liked the post
func (h *LikeHandler) LikeStatus(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	postID := c.Param("id")

	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	liked, err := h.likeRepository.HasUserLikedPost(postID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"likes_count": count,
		"liked":       liked,
	})
}
