package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordConn struct {
	id string

	mu     sync.Mutex
	events []string
}

func (c *recordConn) ID() string { return c.id }

func (c *recordConn) Send(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *recordConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestHubPublishReachesRoomOnly(t *testing.T) {
	hub := NewHub()
	a1 := &recordConn{id: "a1"}
	a2 := &recordConn{id: "a2"}
	b1 := &recordConn{id: "b1"}

	hub.Subscribe("AAAA11", a1)
	hub.Subscribe("AAAA11", a2)
	hub.Subscribe("BBBB22", b1)

	hub.Publish("AAAA11", "room-updated", nil)

	assert.Equal(t, 1, a1.count())
	assert.Equal(t, 1, a2.count())
	assert.Equal(t, 0, b1.count())
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	conn := &recordConn{id: "c1"}

	hub.Subscribe("AAAA11", conn)
	assert.Equal(t, 1, hub.Subscribers("AAAA11"))

	hub.Unsubscribe("AAAA11", conn)
	assert.Equal(t, 0, hub.Subscribers("AAAA11"))

	hub.Publish("AAAA11", "room-updated", nil)
	assert.Equal(t, 0, conn.count())

	// Unsubscribing twice or from an unknown room is harmless.
	hub.Unsubscribe("AAAA11", conn)
	hub.Unsubscribe("ZZZZ99", conn)
}

func TestHubPublishToEmptyRoom(t *testing.T) {
	hub := NewHub()
	hub.Publish("AAAA11", "room-updated", nil)
	assert.Equal(t, 0, hub.Subscribers("AAAA11"))
}
