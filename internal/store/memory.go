package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roomdrop/roomdrop/internal/models"
)

// MemoryStore is the process-local fallback backend. One instance is shared
// by every request handler in the process (see Shared); this is a deliberate
// singleton, since the fallback must present one logical store per process.
//
// Expiry follows the room's age against TTL: an O(n) sweep runs on every
// entry point, which is acceptable at the traffic this service targets.
// Unlike the Redis backend there is no sliding expiration here, rooms live
// exactly TTL from creation.
type MemoryStore struct {
	mu       sync.Mutex
	rooms    map[string]models.Room
	messages map[string][]models.Message
	ipRooms  map[string]*ipEntry
	files    map[string]*fileEntry
}

type ipEntry struct {
	rooms     map[string]struct{}
	refreshed time.Time
}

type fileEntry struct {
	file   File
	stored time.Time
}

var (
	sharedOnce sync.Once
	shared     *MemoryStore
)

// Shared returns the process-wide MemoryStore, constructing it on first use.
func Shared() *MemoryStore {
	sharedOnce.Do(func() {
		shared = NewMemoryStore()
		log.Debug().Msg("initialized shared in-memory store")
	})
	return shared
}

// NewMemoryStore creates an empty store. Production code goes through
// Shared; independent instances exist for tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]models.Room),
		messages: make(map[string][]models.Message),
		ipRooms:  make(map[string]*ipEntry),
		files:    make(map[string]*fileEntry),
	}
}

// Ping always succeeds; the fallback store has no connection to lose.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// sweep removes every room older than TTL along with its message list, and
// prunes idle discovery entries and expired files. Callers hold s.mu.
func (s *MemoryStore) sweep() {
	now := time.Now()
	cleaned := 0
	for id, room := range s.rooms {
		if now.Sub(time.UnixMilli(room.CreatedAt)) > TTL {
			delete(s.rooms, id)
			delete(s.messages, id)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Debug().Int("rooms", cleaned).Msg("swept expired rooms from memory store")
	}
	for ip, entry := range s.ipRooms {
		if now.Sub(entry.refreshed) > TTL {
			delete(s.ipRooms, ip)
		}
	}
	for id, entry := range s.files {
		if now.Sub(entry.stored) > TTL {
			delete(s.files, id)
		}
	}
}

func (s *MemoryStore) SetRoom(ctx context.Context, id string, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.rooms[id] = *room
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (s *MemoryStore) RoomExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	_, ok := s.rooms[id]
	return ok, nil
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) GetAllRooms(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

// AddMessage appends to the room's list. A missing room is logged and
// dropped rather than surfaced; the facade checks existence before
// delegating, so hitting this path means the room expired in between.
func (s *MemoryStore) AddMessage(ctx context.Context, roomID string, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if _, ok := s.rooms[roomID]; !ok {
		log.Warn().Str("room", roomID).Msg("dropping message for nonexistent room")
		return nil
	}
	s.messages[roomID] = append(s.messages[roomID], *msg)
	return nil
}

// GetMessages returns the room's messages ascending by creation time. The
// re-sort is defensive; append order already matches under normal operation.
func (s *MemoryStore) GetMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	msgs := make([]models.Message, len(s.messages[roomID]))
	copy(msgs, s.messages[roomID])
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt < msgs[j].CreatedAt
	})
	return msgs, nil
}

func (s *MemoryStore) AddRoomToIP(ctx context.Context, ip, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.ipRooms[ip]
	if !ok {
		entry = &ipEntry{rooms: make(map[string]struct{})}
		s.ipRooms[ip] = entry
	}
	entry.rooms[roomID] = struct{}{}
	entry.refreshed = time.Now()
	return nil
}

// GetRoomsByIP returns every room id recorded for the address, including
// ids whose room has since expired; reconciliation is the reader's job.
func (s *MemoryStore) GetRoomsByIP(ctx context.Context, ip string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.ipRooms[ip]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(entry.rooms))
	for id := range entry.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) PutFile(ctx context.Context, id string, file *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.files[id] = &fileEntry{file: *file, stored: time.Now()}
	return nil
}

func (s *MemoryStore) GetFile(ctx context.Context, id string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	file := entry.file
	return &file, nil
}
