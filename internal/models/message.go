package models

import "encoding/json"

// Message types. Non-text types carry a reference URL in Content and the
// original file metadata alongside.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypePDF   = "pdf"
	TypeFile  = "file"
)

// ValidType reports whether t is one of the closed set of message types.
func ValidType(t string) bool {
	switch t {
	case TypeText, TypeImage, TypePDF, TypeFile:
		return true
	}
	return false
}

// Message is a single entry in a room's ordered list. Messages are never
// mutated after creation and are destroyed only with their room.
type Message struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"` // ephemeral, generated per submission
	Content   string `json:"content"`
	Type      string `json:"type"`
	FileName  string `json:"fileName,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	CreatedAt int64  `json:"createdAt"` // Unix ms
}

// Valid reports whether the message carries the required fields.
func (m *Message) Valid() bool {
	return m != nil &&
		m.ID != "" &&
		m.RoomID != "" &&
		m.UserID != "" &&
		m.Content != "" &&
		m.Type != "" &&
		m.CreatedAt > 0
}

// DecodeMessage decodes one stored message payload, accepting the same two
// representations as DecodeRoom. A malformed entry must not fail the whole
// list read, so callers skip on error.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err == nil && msg.Valid() {
		return &msg, nil
	}

	var inner string
	if err := json.Unmarshal(data, &inner); err == nil {
		msg = Message{}
		if err := json.Unmarshal([]byte(inner), &msg); err == nil && msg.Valid() {
			return &msg, nil
		}
	}

	return nil, ErrInvalidPayload
}
