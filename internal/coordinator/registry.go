package coordinator

import "sync"

// Session is the ephemeral link between one live connection and one roster
// entry. It exists only while the connection is open.
type Session struct {
	ParticipantID string
	RoomCode      string
	Nickname      string
}

// Registry is the process-wide connection -> session map. It is injected
// into the coordinator rather than living in package state, and is safe for
// concurrent use from many in-flight events.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *Registry) Put(connID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = s
}

func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
}

// RoomCount reports how many live sessions belong to a room.
func (r *Registry) RoomCount(roomCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if s.RoomCode == roomCode {
			n++
		}
	}
	return n
}

// RoomSessions returns the sessions currently bound to a room.
func (r *Registry) RoomSessions(roomCode string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0)
	for _, s := range r.sessions {
		if s.RoomCode == roomCode {
			out = append(out, s)
		}
	}
	return out
}
