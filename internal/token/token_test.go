package token

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base36Re = regexp.MustCompile(`^[0-9a-z]+$`)

func TestNewRoomID(t *testing.T) {
	id := NewRoomID()
	assert.Len(t, id, 5)
	assert.True(t, base36Re.MatchString(id), "room id must be lowercase base36, got %q", id)
	assert.Equal(t, strings.ToLower(id), id)
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.True(t, base36Re.MatchString(id), "id must be base36, got %q", id)
	assert.Greater(t, len(id), 11)
}

func TestNewUserID(t *testing.T) {
	id := NewUserID()
	assert.Len(t, id, 6)
	assert.True(t, base36Re.MatchString(id))
}

func TestNewHostKeyUnpredictable(t *testing.T) {
	a := NewHostKey()
	b := NewHostKey()
	require.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashPassword(t *testing.T) {
	h1 := HashPassword("abc123")
	h2 := HashPassword("abc123")
	assert.Equal(t, h1, h2, "digest must be deterministic")
	assert.NotEqual(t, h1, HashPassword("ABC123"), "digest is case-sensitive")
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "abc123")

	// Known vector keeps the on-disk format stable.
	assert.Equal(t,
		"6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090",
		HashPassword("abc123"))
}
