package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/roomdrop/roomdrop/internal/metrics"
	"github.com/roomdrop/roomdrop/internal/models"
	"github.com/roomdrop/roomdrop/internal/token"
)

// Backend names reported by StorageType.
const (
	TypeRedis  = "redis"
	TypeMemory = "memory"
)

// Facade is the single entry point to the storage core. It decides at first
// use whether Redis is configured and reachable; any later backend failure
// downgrades the facade to the in-process store for the remainder of the
// process, and the failed operation is retried there so callers never see
// the primary go away.
type Facade struct {
	redisURL string
	logger   zerolog.Logger

	initOnce sync.Once
	redis    *RedisStore
	fallback *MemoryStore
	degraded atomic.Bool
}

// New creates a Facade. An empty redisURL is a valid configuration meaning
// fallback only. No connection is attempted until the first operation.
func New(redisURL string, logger zerolog.Logger) *Facade {
	return &Facade{
		redisURL: redisURL,
		logger:   logger.With().Str("component", "store").Logger(),
		fallback: Shared(),
	}
}

// ensureInit performs the one-time backend probe. The decision is cached so
// an unreachable Redis is not retried on every call.
func (f *Facade) ensureInit(ctx context.Context) {
	f.initOnce.Do(func() {
		if f.redisURL == "" {
			f.degraded.Store(true)
			f.logger.Info().Msg("redis not configured, using in-memory store")
			return
		}
		rs, err := NewRedisStore(ctx, f.redisURL)
		if err != nil {
			f.degraded.Store(true)
			metrics.StorageFallbacks.Inc()
			f.logger.Warn().Err(err).Msg("redis unreachable, falling back to in-memory store")
			return
		}
		f.redis = rs
		f.logger.Info().Msg("connected to redis")
	})
}

// degrade flips the facade to the fallback store permanently.
func (f *Facade) degrade(err error, op string) {
	if f.degraded.CompareAndSwap(false, true) {
		metrics.StorageFallbacks.Inc()
		f.logger.Warn().Err(err).Str("op", op).
			Msg("redis operation failed, degrading to in-memory store")
	}
}

// useRedis reports whether the current call should target Redis.
func (f *Facade) useRedis() bool {
	return f.redis != nil && !f.degraded.Load()
}

// StorageType names the active backend. Observability only; application
// logic must not branch on it.
func (f *Facade) StorageType() string {
	if f.useRedis() {
		return TypeRedis
	}
	return TypeMemory
}

// Ping checks the active backend.
func (f *Facade) Ping(ctx context.Context) error {
	f.ensureInit(ctx)
	if f.useRedis() {
		return f.redis.Ping(ctx)
	}
	return f.fallback.Ping(ctx)
}

func (f *Facade) SetRoom(ctx context.Context, id string, room *models.Room) error {
	f.ensureInit(ctx)
	if f.useRedis() {
		err := f.redis.SetRoom(ctx, id, room)
		if err == nil {
			return nil
		}
		f.degrade(err, "SetRoom")
	}
	return f.fallback.SetRoom(ctx, id, room)
}

func (f *Facade) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		room, err := f.redis.GetRoom(ctx, id)
		if err == nil {
			return room, nil
		}
		f.degrade(err, "GetRoom")
	}
	return f.fallback.GetRoom(ctx, id)
}

func (f *Facade) RoomExists(ctx context.Context, id string) (bool, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		ok, err := f.redis.RoomExists(ctx, id)
		if err == nil {
			return ok, nil
		}
		f.degrade(err, "RoomExists")
	}
	return f.fallback.RoomExists(ctx, id)
}

func (f *Facade) DeleteRoom(ctx context.Context, id string) error {
	f.ensureInit(ctx)
	if f.useRedis() {
		err := f.redis.DeleteRoom(ctx, id)
		if err == nil {
			return nil
		}
		f.degrade(err, "DeleteRoom")
	}
	return f.fallback.DeleteRoom(ctx, id)
}

func (f *Facade) GetAllRooms(ctx context.Context) ([]string, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		ids, err := f.redis.GetAllRooms(ctx)
		if err == nil {
			return ids, nil
		}
		f.degrade(err, "GetAllRooms")
	}
	return f.fallback.GetAllRooms(ctx)
}

// AddMessage re-validates room existence before delegating, so a message
// can never create an orphaned list for a room that is already gone.
func (f *Facade) AddMessage(ctx context.Context, roomID string, msg *models.Message) error {
	exists, err := f.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}
	if f.useRedis() {
		err := f.redis.AddMessage(ctx, roomID, msg)
		if err == nil {
			return nil
		}
		f.degrade(err, "AddMessage")
	}
	return f.fallback.AddMessage(ctx, roomID, msg)
}

func (f *Facade) GetMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		msgs, err := f.redis.GetMessages(ctx, roomID)
		if err == nil {
			return msgs, nil
		}
		f.degrade(err, "GetMessages")
	}
	return f.fallback.GetMessages(ctx, roomID)
}

func (f *Facade) AddRoomToIP(ctx context.Context, ip, roomID string) error {
	f.ensureInit(ctx)
	if f.useRedis() {
		err := f.redis.AddRoomToIP(ctx, ip, roomID)
		if err == nil {
			return nil
		}
		f.degrade(err, "AddRoomToIP")
	}
	return f.fallback.AddRoomToIP(ctx, ip, roomID)
}

func (f *Facade) GetRoomsByIP(ctx context.Context, ip string) ([]string, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		ids, err := f.redis.GetRoomsByIP(ctx, ip)
		if err == nil {
			return ids, nil
		}
		f.degrade(err, "GetRoomsByIP")
	}
	return f.fallback.GetRoomsByIP(ctx, ip)
}

func (f *Facade) PutFile(ctx context.Context, id string, file *File) error {
	f.ensureInit(ctx)
	if f.useRedis() {
		err := f.redis.PutFile(ctx, id, file)
		if err == nil {
			return nil
		}
		f.degrade(err, "PutFile")
	}
	return f.fallback.PutFile(ctx, id, file)
}

func (f *Facade) GetFile(ctx context.Context, id string) (*File, error) {
	f.ensureInit(ctx)
	if f.useRedis() {
		file, err := f.redis.GetFile(ctx, id)
		if err == nil || errors.Is(err, ErrFileNotFound) {
			return file, err
		}
		f.degrade(err, "GetFile")
	}
	return f.fallback.GetFile(ctx, id)
}

// DeleteRoomAuthorized destroys a room after checking the capability token.
// A missing room and a wrong token produce the same ErrUnauthorized, so the
// response leaks neither existence nor which part failed.
func (f *Facade) DeleteRoomAuthorized(ctx context.Context, id, hostKey string) error {
	room, err := f.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room == nil || hostKey == "" || room.HostKey != hostKey {
		return ErrUnauthorized
	}
	return f.DeleteRoom(ctx, id)
}

// VerifyPassword checks the password gate for a room. Public rooms accept
// anything; private rooms compare digests.
func (f *Facade) VerifyPassword(ctx context.Context, id, password string) error {
	room, err := f.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if !room.IsPrivate {
		return nil
	}
	if room.PasswordHash == "" || room.PasswordHash != token.HashPassword(password) {
		return ErrUnauthorized
	}
	return nil
}

// Compile-time checks that both backends satisfy the full operation set.
var (
	_ Storage = (*RedisStore)(nil)
	_ Storage = (*MemoryStore)(nil)
	_ Storage = (*Facade)(nil)
)
