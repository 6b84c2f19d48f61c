package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func newWSServer(t *testing.T) (*httptest.Server, *Broker) {
	t.Helper()
	broker := NewBroker()
	e := echo.New()
	NewHandler(broker).RegisterWSRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, broker
}

func wsURL(srv *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"
	if query != "" {
		u += "?" + query
	}
	return u
}

func TestServeRejectsMissingUserID(t *testing.T) {
	srv, broker := newWSServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	if err == nil {
		t.Fatal("expected handshake to fail without user_id")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
	if got := broker.GroupSize(GroupKey(0)); got != 0 {
		t.Fatalf("broker picked up a subscription from a rejected handshake")
	}
}

func TestServeRejectsNonNumericUserID(t *testing.T) {
	srv, _ := newWSServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "user_id=abc"), nil)
	if err == nil {
		t.Fatal("expected handshake to fail with non-numeric user_id")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestConnectedClientReceivesPublishedMessage(t *testing.T) {
	srv, broker := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "user_id=9"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// The handler subscribes before Serve returns, but give the server
	// goroutines a moment on slow machines.
	deadline := time.Now().Add(2 * time.Second)
	for broker.GroupSize(GroupKey(9)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if broker.GroupSize(GroupKey(9)) != 1 {
		t.Fatal("client never showed up in its group")
	}

	broker.Publish(GroupKey(9), map[string]string{"verb": "new_post"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg map[string]string
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if msg["verb"] != "new_post" {
		t.Errorf("verb = %q, want %q", msg["verb"], "new_post")
	}
}

func TestDisconnectRemovesSubscription(t *testing.T) {
	srv, broker := newWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "user_id=11"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for broker.GroupSize(GroupKey(11)) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for broker.GroupSize(GroupKey(11)) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := broker.GroupSize(GroupKey(11)); got != 0 {
		t.Fatalf("GroupSize = %d after disconnect, want 0", got)
	}
}
