package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/roomdrop/roomdrop/internal/metrics"
	"github.com/roomdrop/roomdrop/internal/models"
)

// RedisStore is the persistent backend adapter. All keys carry the fixed
// TTL; qualifying reads and writes slide it forward.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Room ids are lower-cased before key construction so lookup is
// case-insensitive.

func roomKey(id string) string {
	return "room:" + strings.ToLower(id)
}

func messagesKey(id string) string {
	return "messages:" + strings.ToLower(id)
}

func ipRoomsKey(ip string) string {
	return "ip_rooms:" + ip
}

func fileKey(id string) string {
	return "file:" + id
}

// observe records operation latency for the Redis histogram.
func observe(start time.Time) {
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
}

// SetRoom writes the serialized room under its key with the fixed TTL.
func (s *RedisStore) SetRoom(ctx context.Context, id string, room *models.Room) error {
	defer observe(time.Now())

	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(id), data, TTL).Err()
}

// GetRoom reads and defensively decodes a room. A missing key or a corrupt
// payload yields (nil, nil), never an error; corrupt keys are deleted
// opportunistically. Every successful read refreshes the TTL of both the
// room and its message list (best-effort).
func (s *RedisStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	defer observe(time.Now())

	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	room, err := models.DecodeRoom(data)
	if err != nil {
		log.Warn().Str("room", id).Msg("discarding corrupt room payload")
		s.client.Del(ctx, roomKey(id))
		return nil, nil
	}

	s.refreshTTL(ctx, id)

	return room, nil
}

// refreshTTL slides the expiry of a room and its message list forward.
// Failures are deliberately ignored; a missed refresh must not fail the
// surrounding read.
func (s *RedisStore) refreshTTL(ctx context.Context, id string) {
	s.client.Expire(ctx, roomKey(id), TTL)
	s.client.Expire(ctx, messagesKey(id), TTL)
}

// RoomExists is a pure existence probe; it does not extend the TTL.
func (s *RedisStore) RoomExists(ctx context.Context, id string) (bool, error) {
	defer observe(time.Now())

	n, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteRoom removes the room and its message list. The two removals are
// one logical deletion; the room key goes first so no reader can observe an
// orphaned message list once the delete completes.
func (s *RedisStore) DeleteRoom(ctx context.Context, id string) error {
	defer observe(time.Now())

	if err := s.client.Del(ctx, roomKey(id)).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, messagesKey(id)).Err()
}

// GetAllRooms enumerates the room namespace and strips the key prefix.
func (s *RedisStore) GetAllRooms(ctx context.Context) ([]string, error) {
	defer observe(time.Now())

	keys, err := s.client.Keys(ctx, "room:*").Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, "room:"))
	}
	return ids, nil
}

// AddMessage appends to the room's list and slides both the list's and the
// room's TTL forward: message activity keeps the room alive.
func (s *RedisStore) AddMessage(ctx context.Context, roomID string, msg *models.Message) error {
	defer observe(time.Now())

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, messagesKey(roomID), data).Err(); err != nil {
		return err
	}
	s.refreshTTL(ctx, roomID)
	return nil
}

// GetMessages reads the full list in stored order. Each entry is decoded
// independently; a malformed entry is skipped so it cannot discard the
// remaining valid messages.
func (s *RedisStore) GetMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	defer observe(time.Now())

	items, err := s.client.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(items))
	for _, item := range items {
		msg, err := models.DecodeMessage([]byte(item))
		if err != nil {
			log.Warn().Str("room", roomID).Msg("skipping malformed message entry")
			continue
		}
		msgs = append(msgs, *msg)
	}
	return msgs, nil
}

// AddRoomToIP links a room to its creator's address and slides the index
// key's TTL, keyed on room-creation activity from that address.
func (s *RedisStore) AddRoomToIP(ctx context.Context, ip, roomID string) error {
	defer observe(time.Now())

	key := ipRoomsKey(ip)
	if err := s.client.SAdd(ctx, key, roomID).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, TTL).Err()
}

// GetRoomsByIP returns the raw index contents. Stale ids are expected; the
// discovery read path filters them against live rooms.
func (s *RedisStore) GetRoomsByIP(ctx context.Context, ip string) ([]string, error) {
	defer observe(time.Now())

	return s.client.SMembers(ctx, ipRoomsKey(ip)).Result()
}

// PutFile stores an uploaded blob with the fixed TTL.
func (s *RedisStore) PutFile(ctx context.Context, id string, file *File) error {
	defer observe(time.Now())

	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fileKey(id), data, TTL).Err()
}

// GetFile retrieves an uploaded blob.
func (s *RedisStore) GetFile(ctx context.Context, id string) (*File, error) {
	defer observe(time.Now())

	data, err := s.client.Get(ctx, fileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		s.client.Del(ctx, fileKey(id))
		return nil, fmt.Errorf("corrupt file payload: %w", ErrFileNotFound)
	}
	return &file, nil
}
