package models

import "time"

const (
	MaxChatLength = 500
	ChatTTL       = 24 * time.Hour
)

// MessageType distinguishes user chat from coordinator-generated lines.
type MessageType string

const (
	MessageUser         MessageType = "user"
	MessageSystem       MessageType = "system"
	MessageNotification MessageType = "notification"
)

// ChatMessage is an append-only, room-scoped chat line. Messages are never
// mutated after creation and expire independently of their room.
type ChatMessage struct {
	ID            string      `json:"id"`
	RoomCode      string      `json:"roomCode"`
	ParticipantID string      `json:"participantId"`
	Nickname      string      `json:"nickname"`
	Text          string      `json:"message"`
	Type          MessageType `json:"type"`
	Timestamp     time.Time   `json:"timestamp"`
}
