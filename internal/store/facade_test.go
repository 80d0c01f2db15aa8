package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomdrop/roomdrop/internal/models"
	"github.com/roomdrop/roomdrop/internal/token"
)

// newTestFacade builds a facade with an isolated fallback store so tests do
// not share state through the process-wide singleton.
func newTestFacade(redisURL string) *Facade {
	f := New(redisURL, zerolog.Nop())
	f.fallback = NewMemoryStore()
	return f
}

func TestFacadeUnconfiguredUsesMemory(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade("")

	room := testRoom("abc12")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))
	assert.Equal(t, TypeMemory, f.StorageType())

	got, err := f.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *room, *got)
}

func TestFacadeUnreachableRedisFallsBack(t *testing.T) {
	ctx := context.Background()
	// A port nothing listens on.
	f := newTestFacade("redis://127.0.0.1:1")

	room := testRoom("abc12")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))
	assert.Equal(t, TypeMemory, f.StorageType())

	got, err := f.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	ok, err := f.RoomExists(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.AddMessage(ctx, room.ID, testMessage(room.ID, "m1", 1)))
	msgs, err := f.GetMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestFacadeUsesRedisWhenReachable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	f := newTestFacade("redis://" + mr.Addr())

	room := testRoom("abc12")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))
	assert.Equal(t, TypeRedis, f.StorageType())
	assert.True(t, mr.Exists("room:abc12"))
}

func TestFacadeDegradesMidFlight(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	f := newTestFacade("redis://" + mr.Addr())

	require.NoError(t, f.SetRoom(ctx, "first", testRoom("first")))
	require.Equal(t, TypeRedis, f.StorageType())

	// Backend goes away. The next failing call downgrades the facade for
	// the remainder of the process; callers keep getting served.
	mr.Close()

	room := testRoom("second")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))
	assert.Equal(t, TypeMemory, f.StorageType())

	got, err := f.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, room.ID, got.ID)
}

func TestFacadeAddMessageRequiresRoom(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade("")

	err := f.AddMessage(ctx, "ghost", testMessage("ghost", "m1", 1))
	assert.ErrorIs(t, err, ErrRoomNotFound)

	msgs, err := f.GetMessages(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, msgs, "no orphaned message list may be created")
}

func TestFacadeDeleteRoomAuthorized(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade("")

	room := testRoom("abc12")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))

	// Wrong key: unauthorized, room survives.
	err := f.DeleteRoomAuthorized(ctx, room.ID, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	got, err := f.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Missing room: indistinguishable from a wrong key.
	err = f.DeleteRoomAuthorized(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Matching key: room and messages gone.
	require.NoError(t, f.AddMessage(ctx, room.ID, testMessage(room.ID, "m1", 1)))
	require.NoError(t, f.DeleteRoomAuthorized(ctx, room.ID, room.HostKey))

	got, err = f.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	ok, err := f.RoomExists(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	msgs, err := f.GetMessages(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestFacadeVerifyPassword(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade("")

	public := testRoom("pub11")
	require.NoError(t, f.SetRoom(ctx, public.ID, public))

	private := testRoom("prv11")
	private.IsPrivate = true
	private.PasswordHash = token.HashPassword("abc123")
	require.NoError(t, f.SetRoom(ctx, private.ID, private))

	// Public rooms accept anything.
	assert.NoError(t, f.VerifyPassword(ctx, public.ID, ""))
	assert.NoError(t, f.VerifyPassword(ctx, public.ID, "whatever"))

	assert.NoError(t, f.VerifyPassword(ctx, private.ID, "abc123"))
	assert.ErrorIs(t, f.VerifyPassword(ctx, private.ID, "ABC123"), ErrUnauthorized)
	assert.ErrorIs(t, f.VerifyPassword(ctx, private.ID, ""), ErrUnauthorized)

	assert.ErrorIs(t, f.VerifyPassword(ctx, "ghost", "x"), ErrRoomNotFound)
}

func TestFacadeDiscoveryFiltersDeadRooms(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade("")

	a := testRoom("aaa11")
	b := testRoom("bbb11")
	deleted := testRoom("ccc11")
	for _, room := range []*models.Room{a, b, deleted} {
		require.NoError(t, f.SetRoom(ctx, room.ID, room))
		require.NoError(t, f.AddRoomToIP(ctx, "1.2.3.4", room.ID))
	}
	require.NoError(t, f.DeleteRoom(ctx, deleted.ID))

	ids, err := f.GetRoomsByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aaa11", "bbb11", "ccc11"}, ids,
		"the index itself may hold stale ids")

	// The read path reconciles against live rooms.
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		room, err := f.GetRoom(ctx, id)
		require.NoError(t, err)
		if room != nil {
			live = append(live, id)
		}
	}
	assert.ElementsMatch(t, []string{"aaa11", "bbb11"}, live)
}

func TestFacadeRepeatedReadsExtendTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	f := newTestFacade("redis://" + mr.Addr())

	room := testRoom("abc12")
	require.NoError(t, f.SetRoom(ctx, room.ID, room))

	for i := 0; i < 3; i++ {
		mr.FastForward(6 * time.Hour)
		got, err := f.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		require.NotNil(t, got, "each read extends the expiry, so the room outlives the original window")
	}
}
