package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/fanout"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// CommentHandler handles comment HTTP requests
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	orchestrator      *fanout.Orchestrator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	orchestrator *fanout.Orchestrator,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		orchestrator:      orchestrator,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment to a post and notifies the post's author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	postID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if req.ParentCommentID != nil {
		parent, err := h.commentRepository.GetCommentByID(*req.ParentCommentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment not found")
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	}

	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.IncrementCommentsCount(c.Request().Context(), postID); err != nil {
		log.Printf("failed to increment comments count for post %s: %v", postID, err)
	}

	actor, err := h.userRepository.GetUserByID(userID)
	if err == nil {
		if err := h.orchestrator.NotifyNewComment(actor, post); err != nil {
			log.Printf("failed to notify author of post %s about comment: %v", postID, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"comment": comment})
}

// GetComments lists a post's comments, oldest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	comments, err := h.commentRepository.GetCommentsByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// DeleteComment removes a comment. Only its author may delete it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	if comment.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	if err := h.commentRepository.DeleteComment(uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.DecrementCommentsCount(c.Request().Context(), comment.PostID); err != nil {
		log.Printf("failed to decrement comments count for post %s: %v", comment.PostID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Comment deleted"})
}
