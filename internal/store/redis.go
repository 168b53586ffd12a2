package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaykim98z/jandibat-live-draft/config"
	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
)

// RedisStore keeps one JSON document per room under "room:<CODE>" and the
// room's chat as a list under "chat:<CODE>".
type RedisStore struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func chatKey(code string) string { return "chat:" + code }

func (s *RedisStore) FindRoom(ctx context.Context, code string) (*models.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Result()
	if err == redis.Nil {
		return nil, errRoomNotFound()
	}
	if err != nil {
		return nil, err
	}
	var room models.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("failed to parse room data: %w", err)
	}
	return &room, nil
}

func (s *RedisStore) SaveRoom(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	// TTL is fixed from creation, not refreshed on write.
	ttl := time.Until(room.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, roomKey(room.Code), data, ttl).Err()
}

func (s *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, chatKey(code)).Err()
}

func (s *RedisStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rooms := make([]*models.Room, 0)
	iter := s.client.Scan(ctx, 0, roomKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var room models.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			continue
		}
		rooms = append(rooms, &room)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := chatKey(msg.RoomCode)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, models.ChatTTL).Err()
}

func (s *RedisStore) Messages(ctx context.Context, roomCode string, limit int) ([]*models.ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	entries, err := s.client.LRange(ctx, chatKey(roomCode), start, -1).Result()
	if err != nil {
		return nil, err
	}
	msgs := make([]*models.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			continue
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
