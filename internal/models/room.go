package models

import "time"

const (
	RoomCodeLength     = 6
	MaxParticipants    = 100
	DefaultTurnTime    = 60
	RoomTTL            = 24 * time.Hour
	MaxTitleLength     = 100
	PasswordRedactMask = "***"
)

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusDrafting  RoomStatus = "drafting"
	StatusCompleted RoomStatus = "completed"
	StatusAbandoned RoomStatus = "abandoned"
)

// DraftType selects how the draft will be run once started.
type DraftType string

const (
	DraftShuffle DraftType = "shuffle"
	DraftSnake   DraftType = "snake"
	DraftManual  DraftType = "manual"
)

func ValidDraftType(d DraftType) bool {
	switch d {
	case DraftShuffle, DraftSnake, DraftManual:
		return true
	}
	return false
}

// Role is what a participant will do during the draft.
type Role string

const (
	RoleManager Role = "manager"
	RolePlayer  Role = "player"
)

func ValidRole(r Role) bool {
	return r == RoleManager || r == RolePlayer
}

// Positions form a closed set; every participant declares one.
var Positions = []string{"ST", "WF", "CM", "CDM", "FB", "CB", "GK"}

func ValidPosition(p string) bool {
	for _, v := range Positions {
		if p == v {
			return true
		}
	}
	return false
}

// Participant is one joined identity inside a room.
type Participant struct {
	ID       string    `json:"participantId"`
	Handle   string    `json:"handle"`
	Nickname string    `json:"nickname"`
	Avatar   string    `json:"avatar,omitempty"`
	Position string    `json:"position"`
	Role     Role      `json:"role"`
	IsHost   bool      `json:"isHost"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// HostInfo is a denormalized summary of the founding participant.
type HostInfo struct {
	ParticipantID string `json:"participantId"`
	Handle        string `json:"handle"`
	Nickname      string `json:"nickname"`
	Avatar        string `json:"avatar,omitempty"`
	Position      string `json:"position"`
}

// Settings are the host-tunable knobs of a room. Password is compared in
// plaintext and never leaves the store unredacted.
type Settings struct {
	Password        string    `json:"password,omitempty"`
	DraftType       DraftType `json:"draftType"`
	TurnTime        int       `json:"turnTime"`
	MaxParticipants int       `json:"maxParticipants"`
}

// Room is the persisted unit of coordination, one document per code.
type Room struct {
	Code         string        `json:"code"`
	Title        string        `json:"title"`
	Host         HostInfo      `json:"host"`
	Settings     Settings      `json:"settings"`
	Status       RoomStatus    `json:"status"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

// Participant returns a pointer into the roster so callers can mutate in
// place before saving.
func (r *Room) Participant(id string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantByHandle finds a roster entry by external identity.
func (r *Room) ParticipantByHandle(handle string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].Handle == handle {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// RemoveParticipant deletes a roster entry, preserving join order.
func (r *Room) RemoveParticipant(id string) bool {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) IsHost(participantID string) bool {
	return r.Host.ParticipantID == participantID
}

func (r *Room) IsFull() bool {
	max := r.Settings.MaxParticipants
	if max <= 0 || max > MaxParticipants {
		max = MaxParticipants
	}
	return len(r.Participants) >= max
}

// SettingsView is the redacted wire form of Settings.
type SettingsView struct {
	Password        *string   `json:"password"`
	DraftType       DraftType `json:"draftType"`
	TurnTime        int       `json:"turnTime"`
	MaxParticipants int       `json:"maxParticipants"`
}

func (s Settings) View() SettingsView {
	view := SettingsView{
		DraftType:       s.DraftType,
		TurnTime:        s.TurnTime,
		MaxParticipants: s.MaxParticipants,
	}
	if s.Password != "" {
		mask := PasswordRedactMask
		view.Password = &mask
	}
	return view
}

// ManagerView is a derived entry for a participant with the manager role.
// Team starts empty and grows as the draft progresses.
type ManagerView struct {
	ParticipantID string       `json:"participantId"`
	Handle        string       `json:"handle"`
	Nickname      string       `json:"nickname"`
	Avatar        string       `json:"avatar,omitempty"`
	Position      string       `json:"position"`
	AssignedAt    time.Time    `json:"assignedAt"`
	Team          []PoolPlayer `json:"team"`
}

// PoolPlayer is a draft-eligible entry derived from a player-role participant.
type PoolPlayer struct {
	ParticipantID string     `json:"participantId"`
	Handle        string     `json:"handle"`
	Nickname      string     `json:"nickname"`
	Avatar        string     `json:"avatar,omitempty"`
	Position      string     `json:"position"`
	IsSelected    bool       `json:"isSelected"`
	SelectedBy    string     `json:"selectedBy,omitempty"`
	SelectedAt    *time.Time `json:"selectedAt,omitempty"`
}

// RoomView is the snapshot sent to clients: the room plus every derived view,
// recomputed from the roster on each broadcast so nothing can drift.
type RoomView struct {
	Code             string        `json:"code"`
	Title            string        `json:"title"`
	Host             HostInfo      `json:"host"`
	Settings         SettingsView  `json:"settings"`
	Status           RoomStatus    `json:"status"`
	Participants     []Participant `json:"participants"`
	ParticipantCount int           `json:"participantCount"`
	Managers         []ManagerView `json:"managers"`
	PlayerPool       []PoolPlayer  `json:"playerPool"`
	ManagerCount     int           `json:"managerCount"`
	PlayerCount      int           `json:"playerCount"`
	CanStartDraft    bool          `json:"canStartDraft"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// IdentityPayload carries the externally validated identity of a joining user.
type IdentityPayload struct {
	Handle   string `json:"handle" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
	Avatar   string `json:"avatar"`
	Position string `json:"position" binding:"required"`
}

// SettingsPayload is the optional settings block on room creation.
type SettingsPayload struct {
	Password  string    `json:"password"`
	DraftType DraftType `json:"draftType"`
	TurnTime  int       `json:"turnTime"`
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Title    string           `json:"title" binding:"required,max=100"`
	Host     IdentityPayload  `json:"host" binding:"required"`
	Settings *SettingsPayload `json:"settings"`
}

// JoinRoomRequest is the request body for the founding join.
type JoinRoomRequest struct {
	User     IdentityPayload `json:"user" binding:"required"`
	Password string          `json:"password"`
}
