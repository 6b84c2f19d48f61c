package ws

import (
	"fmt"
	"sync"
)

// Broker owns the mapping from group keys to the live connections subscribed
// to them. It is the single source of truth for "is this user currently
// reachable". One Broker is created at startup and shared by the WebSocket
// handler and the fan-out path.
type Broker struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

// NewBroker creates an empty Broker
func NewBroker() *Broker {
	return &Broker{
		groups: make(map[string]map[*Client]struct{}),
	}
}

// GroupKey derives the broker group key for a user ID. It must stay stable
// across restarts so reconnecting clients land in the same group.
func GroupKey(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// Subscribe registers the client under the group, creating the group lazily.
// Subscribing the same client twice is a no-op.
func (b *Broker) Subscribe(groupKey string, client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.groups[groupKey]
	if !ok {
		group = make(map[*Client]struct{})
		b.groups[groupKey] = group
	}
	group[client] = struct{}{}
}

// Unsubscribe removes the client from the group and closes its send channel.
// It is safe to call on every disconnect path: unknown groups, clients that
// never subscribed, and repeated calls are all no-ops.
func (b *Broker) Unsubscribe(groupKey string, client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.groups[groupKey]
	if !ok {
		return
	}
	if _, subscribed := group[client]; !subscribed {
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(b.groups, groupKey)
	}
	close(client.send)
}

// Publish delivers the message to every client subscribed to the group at the
// time of the call. Delivery is a bounded non-blocking enqueue per client; a
// client whose buffer is full is dropped rather than allowed to stall the
// others. Messages published to an empty group are discarded, the durable
// notification row is the system of record.
func (b *Broker) Publish(groupKey string, message any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.groups[groupKey] {
		select {
		case client.send <- message:
		default:
			// Slow consumer, disconnect it. Unsubscribe needs the write
			// lock, so it cannot run inline here.
			go b.Unsubscribe(groupKey, client)
		}
	}
}

// GroupSize returns the number of live subscribers in a group
func (b *Broker) GroupSize(groupKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[groupKey])
}
