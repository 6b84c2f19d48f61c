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

// PostHandler handles blog post HTTP requests
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	orchestrator   *fanout.Orchestrator
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	orchestrator *fanout.Orchestrator,
) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		orchestrator:   orchestrator,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.ListPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/slug/:slug", h.GetPostBySlug)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetPostsByAuthor)
}

// pagination reads page/limit query params with sane defaults
func pagination(c echo.Context) (page, limit int64) {
	page, _ = strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// CreatePost creates a post and notifies the author's followers
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create post")
	}

	// The post is durable at this point. A notification failure must not
	// undo it, so it is logged and the create still succeeds.
	if err := h.orchestrator.NotifyFollowers(c.Request().Context(), userID, post); err != nil {
		log.Printf("failed to fan out notifications for post %s: %v", post.ID.Hex(), err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"post": post})
}

// ListPosts returns all posts, newest first, paginated
func (h *PostHandler) ListPosts(c echo.Context) error {
	page, limit := pagination(c)

	posts, total, err := h.postRepository.GetAllPosts(c.Request().Context(), (page-1)*limit, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch posts")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": posts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetPost returns a single post by ID and counts the view
func (h *PostHandler) GetPost(c echo.Context) error {
	id := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if err := h.postRepository.IncrementViews(c.Request().Context(), id); err != nil {
		log.Printf("failed to increment views for post %s: %v", id, err)
	} else {
		post.Views++
	}

	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

// GetPostBySlug returns a single post by slug and counts the view
func (h *PostHandler) GetPostBySlug(c echo.Context) error {
	postSlug := c.Param("slug")

	post, err := h.postRepository.GetPostBySlug(c.Request().Context(), postSlug)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if err := h.postRepository.IncrementViews(c.Request().Context(), post.ID.Hex()); err != nil {
		log.Printf("failed to increment views for post %s: %v", post.ID.Hex(), err)
	} else {
		post.Views++
	}

	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

// UpdatePost updates a post's title and content. Only the author may update.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	id := c.Param("id")

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only update your own posts")
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}

	if err := h.postRepository.UpdatePost(c.Request().Context(), id, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update post")
	}

	return c.JSON(http.StatusOK, echo.Map{"post": post})
}

// DeletePost soft-deletes a post. Only the author may delete.
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	id := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	if err := h.postRepository.SoftDeletePost(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete post")
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Post deleted"})
}

// GetPostsByAuthor lists a user's posts, newest first, paginated
func (h *PostHandler) GetPostsByAuthor(c echo.Context) error {
	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	page, limit := pagination(c)

	posts, err := h.postRepository.GetPostsByAuthorID(c.Request().Context(), uint(authorID), (page-1)*limit, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch posts")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": posts,
		"page":  page,
		"limit": limit,
	})
}
