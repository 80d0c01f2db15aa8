// Package store is the storage core: a TTL-bound key-value layer for rooms,
// their ordered message lists, uploaded blobs, and the client-address
// discovery index. The Facade is the only entry point the rest of the
// service uses; it targets Redis when reachable and degrades to the shared
// in-process store otherwise.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/roomdrop/roomdrop/internal/models"
)

// TTL is the fixed lifetime of rooms, message lists, uploads, and discovery
// entries. Qualifying activity slides the expiry forward by this window.
const TTL = 24 * time.Hour

var (
	// ErrRoomNotFound is returned when an operation references a room
	// that does not exist or has expired.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized is returned when a capability token or password
	// does not grant the attempted operation. It deliberately does not
	// distinguish a missing room from a wrong credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFileNotFound is returned for absent or expired uploads.
	ErrFileNotFound = errors.New("file not found")
)

// File is an ephemeral uploaded blob referenced by non-text messages.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Storage is the full operation set of the storage core. Both backends
// implement it; nothing outside this package talks to a backend directly.
type Storage interface {
	Ping(ctx context.Context) error

	SetRoom(ctx context.Context, id string, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	RoomExists(ctx context.Context, id string) (bool, error)
	DeleteRoom(ctx context.Context, id string) error
	GetAllRooms(ctx context.Context) ([]string, error)

	AddMessage(ctx context.Context, roomID string, msg *models.Message) error
	GetMessages(ctx context.Context, roomID string) ([]models.Message, error)

	AddRoomToIP(ctx context.Context, ip, roomID string) error
	GetRoomsByIP(ctx context.Context, ip string) ([]string, error)

	PutFile(ctx context.Context, id string, file *File) error
	GetFile(ctx context.Context, id string) (*File, error)
}
