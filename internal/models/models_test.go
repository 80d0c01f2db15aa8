package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoom(t *testing.T) {
	room := Room{ID: "abc12", CreatedAt: 1700000000000, HostKey: "secret"}
	raw, err := json.Marshal(room)
	require.NoError(t, err)

	got, err := DecodeRoom(raw)
	require.NoError(t, err)
	assert.Equal(t, room, *got)
}

func TestDecodeRoomDoubleEncoded(t *testing.T) {
	inner, err := json.Marshal(Room{ID: "abc12", CreatedAt: 1})
	require.NoError(t, err)
	outer, err := json.Marshal(string(inner))
	require.NoError(t, err)

	got, err := DecodeRoom(outer)
	require.NoError(t, err)
	assert.Equal(t, "abc12", got.ID)
}

func TestDecodeRoomRejectsCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"missing id":        `{"createdAt":1700000000000}`,
		"missing createdAt": `{"id":"abc12"}`,
		"wrong shape":       `[1,2,3]`,
		"empty":             ``,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeRoom([]byte(payload))
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.Nil(t, got)
		})
	}
}

func TestRoomSanitized(t *testing.T) {
	room := Room{
		ID:           "abc12",
		CreatedAt:    1700000000000,
		HostKey:      "secret",
		IsPrivate:    true,
		PasswordHash: "deadbeef",
	}

	out, err := json.Marshal(room.Sanitized())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.NotContains(t, string(out), "deadbeef")
	assert.Contains(t, string(out), `"id":"abc12"`)
}

func TestDecodeMessage(t *testing.T) {
	msg := Message{
		ID:        "m1",
		RoomID:    "abc12",
		UserID:    "u1",
		Content:   "hello",
		Type:      TypeText,
		CreatedAt: 42,
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	got, err := DecodeMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, *got)

	_, err = DecodeMessage([]byte(`{"id":"m1"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(TypeText))
	assert.True(t, ValidType(TypeImage))
	assert.True(t, ValidType(TypePDF))
	assert.True(t, ValidType(TypeFile))
	assert.False(t, ValidType("video"))
	assert.False(t, ValidType(""))
}
