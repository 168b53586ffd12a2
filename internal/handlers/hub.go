package handlers

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Jaykim98z/jandibat-live-draft/internal/coordinator"
)

// Hub is the message channel collaborator: per-room subscriber sets with
// fire-and-forget publish. It implements coordinator.Channel.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]coordinator.Conn
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]coordinator.Conn)}
}

func (h *Hub) Subscribe(roomCode string, conn coordinator.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomCode]
	if !ok {
		subs = make(map[string]coordinator.Conn)
		h.rooms[roomCode] = subs
		log.Debug().Str("room", roomCode).Msg("room channel opened")
	}
	subs[conn.ID()] = conn
}

func (h *Hub) Unsubscribe(roomCode string, conn coordinator.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	delete(subs, conn.ID())
	if len(subs) == 0 {
		delete(h.rooms, roomCode)
		log.Debug().Str("room", roomCode).Msg("room channel closed")
	}
}

// Publish delivers to every current subscriber of the room. Delivery never
// blocks; slow clients drop frames at their send buffer.
func (h *Hub) Publish(roomCode string, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.rooms[roomCode] {
		conn.Send(event, payload)
	}
}

// Subscribers reports the current subscriber count of a room.
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
