// Package store persists room documents and chat messages. Rooms live for
// 24 hours from creation, chat messages for 24 hours from write; expiry is
// delegated to the backend's TTL support.
package store

import (
	"context"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
)

// Store is the document store collaborator. FindRoom returns a not-found
// error when no document matches the code.
type Store interface {
	FindRoom(ctx context.Context, code string) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, code string) error
	ListRooms(ctx context.Context) ([]*models.Room, error)

	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	Messages(ctx context.Context, roomCode string, limit int) ([]*models.ChatMessage, error)

	Close() error
}

func errRoomNotFound() error {
	return models.NewError(models.CodeNotFound, "room not found")
}

func roomKey(code string) string { return "room:" + code }
