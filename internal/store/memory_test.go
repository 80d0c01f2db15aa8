package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomdrop/roomdrop/internal/models"
)

func testRoom(id string) *models.Room {
	return &models.Room{
		ID:        id,
		CreatedAt: time.Now().UnixMilli(),
		HostKey:   "host-key-" + id,
	}
}

func testMessage(roomID, id string, at int64) *models.Message {
	return &models.Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    "u" + id,
		Content:   "content " + id,
		Type:      models.TypeText,
		CreatedAt: at,
	}
}

func TestMemorySetGetRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	room := testRoom("abc12")
	require.NoError(t, s.SetRoom(ctx, room.ID, room))

	got, err := s.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *room, *got)

	ok, err := s.RoomExists(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	missing, err := s.GetRoom(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err = s.RoomExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryExpirySweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	fresh := testRoom("fresh")
	fresh.CreatedAt = time.Now().Add(-TTL + time.Minute).UnixMilli()
	expired := testRoom("stale")
	expired.CreatedAt = time.Now().Add(-TTL - time.Minute).UnixMilli()

	require.NoError(t, s.SetRoom(ctx, fresh.ID, fresh))
	s.mu.Lock()
	s.rooms[expired.ID] = *expired
	s.messages[expired.ID] = []models.Message{*testMessage(expired.ID, "m1", 1)}
	s.mu.Unlock()

	got, err := s.GetRoom(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "room inside the TTL window must be returned")

	got, err = s.GetRoom(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "room past the TTL window must be gone")

	msgs, err := s.GetMessages(ctx, expired.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "expired room's messages go with it")
}

func TestMemoryMessageOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	room := testRoom("abc12")
	require.NoError(t, s.SetRoom(ctx, room.ID, room))

	// Appended out of timestamp order; the read path re-sorts.
	require.NoError(t, s.AddMessage(ctx, room.ID, testMessage(room.ID, "m2", 200)))
	require.NoError(t, s.AddMessage(ctx, room.ID, testMessage(room.ID, "m1", 100)))
	require.NoError(t, s.AddMessage(ctx, room.ID, testMessage(room.ID, "m3", 300)))

	msgs, err := s.GetMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, "m3", msgs[2].ID)
}

func TestMemoryAddMessageMissingRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Dropped silently; the facade layer is responsible for surfacing
	// the room-not-found condition.
	require.NoError(t, s.AddMessage(ctx, "ghost", testMessage("ghost", "m1", 1)))

	msgs, err := s.GetMessages(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryDeleteRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	room := testRoom("abc12")
	require.NoError(t, s.SetRoom(ctx, room.ID, room))
	require.NoError(t, s.AddMessage(ctx, room.ID, testMessage(room.ID, "m1", 1)))

	require.NoError(t, s.DeleteRoom(ctx, room.ID))

	got, err := s.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := s.RoomExists(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	msgs, err := s.GetMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryGetAllRooms(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SetRoom(ctx, "a", testRoom("a")))
	require.NoError(t, s.SetRoom(ctx, "b", testRoom("b")))

	ids, err := s.GetAllRooms(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestMemoryIPIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AddRoomToIP(ctx, "1.2.3.4", "a"))
	require.NoError(t, s.AddRoomToIP(ctx, "1.2.3.4", "b"))
	require.NoError(t, s.AddRoomToIP(ctx, "5.6.7.8", "c"))

	ids, err := s.GetRoomsByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	ids, err = s.GetRoomsByIP(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryFiles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	file := &File{Name: "cat.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
	require.NoError(t, s.PutFile(ctx, "f1", file))

	got, err := s.GetFile(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, *file, *got)

	_, err = s.GetFile(ctx, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSharedSingleton(t *testing.T) {
	assert.Same(t, Shared(), Shared())
}
