package ws

import (
	"log"

	"github.com/gorilla/websocket"
)

// Buffered messages per connection before the client counts as slow
const sendBufferSize = 256

// Client bridges one WebSocket connection to one broker group. It holds no
// business logic; many clients may share a group key (one per open tab or
// device of the same user).
type Client struct {
	userID   uint
	groupKey string
	conn     *websocket.Conn
	send     chan any
}

// NewClient wraps an upgraded connection for the given user
func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		userID:   userID,
		groupKey: GroupKey(userID),
		conn:     conn,
		send:     make(chan any, sendBufferSize),
	}
}

// GroupKey returns the broker group key this client subscribes under
func (c *Client) GroupKey() string {
	return c.groupKey
}

// readPump consumes inbound frames until the connection drops. The client
// never sends application messages; reading only detects disconnects. The
// deferred unsubscribe runs on every exit path so no stale subscription can
// leak.
func (c *Client) readPump(broker *Broker) {
	defer func() {
		broker.Unsubscribe(c.groupKey, c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error for user %d: %v", c.userID, err)
			}
			return
		}
	}
}

// writePump forwards published messages to the transport. It exits when the
// broker closes the send channel on unsubscribe, or when a write fails, which
// is treated as a disconnect rather than an application error.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			log.Printf("websocket write error for user %d: %v", c.userID, err)
			return
		}
	}
}
