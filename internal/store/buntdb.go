package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
)

// BuntStore is an embedded single-file backend. Rooms and chat messages use
// buntdb's native per-key TTL. Open with ":memory:" for tests.
type BuntStore struct {
	db *buntdb.DB
}

func NewBunt(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

// chatEntryKey orders messages lexically by timestamp within a room.
func chatEntryKey(roomCode string, ts time.Time, id string) string {
	return fmt.Sprintf("chat:%s:%019d:%s", roomCode, ts.UnixNano(), id)
}

func (s *BuntStore) FindRoom(_ context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := s.db.View(func(tx *buntdb.Tx) error {
		data, err := tx.Get(roomKey(code))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(data), &room)
	})
	if err == buntdb.ErrNotFound {
		return nil, errRoomNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *BuntStore) SaveRoom(_ context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	ttl := time.Until(room.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(roomKey(room.Code), string(data), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

func (s *BuntStore) DeleteRoom(_ context.Context, code string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Delete(roomKey(code)); err != nil && err != buntdb.ErrNotFound {
			return err
		}
		keys := make([]string, 0)
		err := tx.AscendKeys("chat:"+code+":*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	})
}

func (s *BuntStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	rooms := make([]*models.Room, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(roomKey("*"), func(_, value string) bool {
			var room models.Room
			if err := json.Unmarshal([]byte(value), &room); err == nil {
				rooms = append(rooms, &room)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *BuntStore) AppendMessage(_ context.Context, msg *models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		key := chatEntryKey(msg.RoomCode, msg.Timestamp, msg.ID)
		_, _, err := tx.Set(key, string(data), &buntdb.SetOptions{Expires: true, TTL: models.ChatTTL})
		return err
	})
}

func (s *BuntStore) Messages(_ context.Context, roomCode string, limit int) ([]*models.ChatMessage, error) {
	msgs := make([]*models.ChatMessage, 0)
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("chat:"+roomCode+":*", func(_, value string) bool {
			var msg models.ChatMessage
			if err := json.Unmarshal([]byte(value), &msg); err == nil {
				msgs = append(msgs, &msg)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *BuntStore) Close() error {
	return s.db.Close()
}
