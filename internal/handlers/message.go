package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomdrop/roomdrop/internal/metrics"
	"github.com/roomdrop/roomdrop/internal/models"
	"github.com/roomdrop/roomdrop/internal/store"
	"github.com/roomdrop/roomdrop/internal/token"
)

const maxMessageBytes = 16 * 1024

// PostMessageRequest represents the message submission request. For
// non-text types Content carries the reference URL of an uploaded file.
type PostMessageRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// GetMessages returns a room's messages in ascending creation order,
// dropping any entry that lost required fields.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	exists, err := h.store.RoomExists(r.Context(), roomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get messages")
		return
	}
	if !exists {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}

	msgs, err := h.store.GetMessages(r.Context(), roomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get messages")
		return
	}

	valid := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Valid() {
			valid = append(valid, msg)
		}
	}

	h.JSON(w, http.StatusOK, valid)
}

// PostMessage appends a message to a room. The message id, the ephemeral
// user id, and the timestamp are generated server-side.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Content == "" {
		h.Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Content) > maxMessageBytes {
		h.Error(w, http.StatusUnprocessableEntity, "content too long")
		return
	}
	if req.Type == "" {
		req.Type = models.TypeText
	}
	if !models.ValidType(req.Type) {
		h.Error(w, http.StatusBadRequest, "invalid message type")
		return
	}

	msg := &models.Message{
		ID:        token.NewID(),
		RoomID:    roomID,
		UserID:    token.NewUserID(),
		Content:   req.Content,
		Type:      req.Type,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		FileType:  req.FileType,
		CreatedAt: time.Now().UnixMilli(),
	}

	err := h.store.AddMessage(r.Context(), roomID, msg)
	if errors.Is(err, store.ErrRoomNotFound) {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.MessagesPosted.WithLabelValues(msg.Type).Inc()
	h.JSON(w, http.StatusCreated, msg)
}
