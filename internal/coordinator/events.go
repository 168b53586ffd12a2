package coordinator

import "github.com/Jaykim98z/jandibat-live-draft/internal/models"

// Inbound event names, as sent by clients over the websocket.
const (
	EventJoin            = "join"
	EventLeave           = "leave"
	EventSendChat        = "send-chat"
	EventToggleReady     = "toggle-ready"
	EventUpdateSettings  = "update-settings"
	EventAssignRole      = "assign-role"
	EventAutoAssignRoles = "auto-assign-roles"
	EventStartDraft      = "start-draft"
)

// Outbound event names.
const (
	EventJoined            = "joined"
	EventRoomUpdated       = "room-updated"
	EventParticipantLeft   = "participant-left"
	EventChatMessage       = "chat-message"
	EventRoleAssigned      = "role-assigned"
	EventRolesAutoAssigned = "roles-auto-assigned"
	EventDraftStarted      = "draft-started"
	EventError             = "error"
)

// Conn is one live client connection as the coordinator sees it.
type Conn interface {
	ID() string
	Send(event string, payload any)
}

// Channel is the fan-out collaborator: a per-room set of subscribers.
// Publish is fire-and-forget and never blocks on slow clients.
type Channel interface {
	Subscribe(roomCode string, conn Conn)
	Unsubscribe(roomCode string, conn Conn)
	Publish(roomCode string, event string, payload any)
}

type JoinedPayload struct {
	Room          models.RoomView `json:"room"`
	ParticipantID string          `json:"participantId"`
	IsHost        bool            `json:"isHost"`
}

type RoomUpdatedPayload struct {
	Room models.RoomView `json:"room"`
}

type ParticipantLeftPayload struct {
	ParticipantID string          `json:"participantId"`
	Nickname      string          `json:"nickname"`
	Room          models.RoomView `json:"room"`
}

type RoleAssignedPayload struct {
	ParticipantID string          `json:"participantId"`
	Role          models.Role     `json:"role"`
	Room          models.RoomView `json:"room"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// SettingsPatch carries the host-editable subset; nil fields are untouched.
type SettingsPatch struct {
	Title           *string           `json:"title"`
	DraftType       *models.DraftType `json:"draftType"`
	TurnTime        *int              `json:"turnTime"`
	MaxParticipants *int              `json:"maxParticipants"`
}
