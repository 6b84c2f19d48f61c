package ws

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production add an origin check
	},
}

// Handler upgrades notification connections and joins them to the broker
type Handler struct {
	broker *Broker
}

// NewHandler creates a new WebSocket Handler
func NewHandler(broker *Broker) *Handler {
	return &Handler{broker: broker}
}

// RegisterWSRoutes registers the notification WebSocket route
func (h *Handler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws/notifications", h.Serve)
}

// Serve handles the notification WebSocket handshake. The subscribing user is
// identified by the user_id query parameter; connections without one are
// rejected before the upgrade and never touch the broker.
//
// TODO: require the session JWT on the handshake instead of trusting user_id
// as supplied by the client.
func (h *Handler) Serve(c echo.Context) error {
	userIDParam := c.QueryParam("user_id")
	if userIDParam == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id query parameter is required")
	}
	userID, err := strconv.ParseUint(userIDParam, 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user_id")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		return nil
	}

	client := NewClient(uint(userID), conn)
	h.broker.Subscribe(client.GroupKey(), client)

	go client.writePump()
	go client.readPump(h.broker)

	return nil
}
