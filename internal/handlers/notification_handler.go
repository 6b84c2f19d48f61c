package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
)

// NotificationHandler handles notification inbox HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notificationRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// notificationView is a notification enriched with its actor's public profile
type notificationView struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

// GetNotifications lists the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipientID(userID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// A page of notifications usually has few distinct actors, so fetch
	// each actor once.
	actors := make(map[uint]*models.UserCompact)
	views := make([]notificationView, 0, len(notifications))
	for i := range notifications {
		n := notifications[i]
		actor, ok := actors[n.ActorID]
		if !ok {
			if u, err := h.userRepository.GetUserByID(n.ActorID); err == nil {
				compact := u.ToCompact()
				actor = &compact
			}
			actors[n.ActorID] = actor
		}
		views = append(views, notificationView{Notification: n, Actor: actor})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": views,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// GetUnreadCount returns the caller's unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	count, err := h.notificationRepository.GetUnreadCount(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"unread_count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notificationRepository.MarkAsRead(uint(id), userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "Notification marked as read"})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	if err := h.notificationRepository.MarkAllAsRead(userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"detail": "All notifications marked as read"})
}
