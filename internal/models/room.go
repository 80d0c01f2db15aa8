package models

import (
	"encoding/json"
	"errors"
)

// ErrInvalidPayload is returned when a stored record fails decoding or
// field validation. Callers treat the record as absent.
var ErrInvalidPayload = errors.New("invalid stored payload")

// Room is a short-lived container for shared content. JSON field names are
// the wire format persisted in the backing store; a room is never mutated
// after creation, only its expiry is extended.
type Room struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"` // Unix ms
	HostKey   string `json:"hostKey,omitempty"`
	IsPrivate bool   `json:"isPrivate,omitempty"`
	// PasswordHash is the SHA-256 hex digest of the room password,
	// set only when IsPrivate. Stored under the legacy "password" key.
	PasswordHash string `json:"password,omitempty"`
}

// Valid reports whether the room carries the required fields. Records that
// fail this check are treated as corrupt and discarded on read.
func (r *Room) Valid() bool {
	return r != nil && r.ID != "" && r.CreatedAt > 0
}

// SanitizedRoom is the API view of a room: the capability token and the
// password digest never leave the storage layer.
type SanitizedRoom struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	IsPrivate bool   `json:"isPrivate"`
}

// Sanitized strips secrets for API responses.
func (r *Room) Sanitized() SanitizedRoom {
	return SanitizedRoom{ID: r.ID, CreatedAt: r.CreatedAt, IsPrivate: r.IsPrivate}
}

// DecodeRoom is the canonical defensive decoder for stored room payloads.
// Depending on client behavior the backend may hand back a JSON object or a
// JSON string containing the object (double encoding); both are accepted.
// Anything that fails field validation is rejected.
func DecodeRoom(data []byte) (*Room, error) {
	var room Room
	if err := json.Unmarshal(data, &room); err == nil && room.Valid() {
		return &room, nil
	}

	// Double-encoded form: a JSON string wrapping the object.
	var inner string
	if err := json.Unmarshal(data, &inner); err == nil {
		room = Room{}
		if err := json.Unmarshal([]byte(inner), &room); err == nil && room.Valid() {
			return &room, nil
		}
	}

	return nil, ErrInvalidPayload
}
