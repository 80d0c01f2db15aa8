package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomdrop/roomdrop/internal/api/middleware"
	"github.com/roomdrop/roomdrop/internal/metrics"
	"github.com/roomdrop/roomdrop/internal/models"
	"github.com/roomdrop/roomdrop/internal/store"
	"github.com/roomdrop/roomdrop/internal/token"
)

// CreateRoomRequest represents the room creation request. The body is
// optional: an empty body creates a public room.
type CreateRoomRequest struct {
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password,omitempty"`
}

// CreateRoomResponse returns the room id and the capability token. The
// host key is shown exactly once, here; it is never readable afterwards.
type CreateRoomResponse struct {
	RoomID  string `json:"roomId"`
	HostKey string `json:"hostKey"`
}

// ListRoomsResponse represents the room listing response.
type ListRoomsResponse struct {
	Count int      `json:"count"`
	Rooms []string `json:"rooms"`
}

// CreateRoom handles room creation.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	if req.IsPrivate && req.Password == "" {
		h.Error(w, http.StatusBadRequest, "private rooms require a password")
		return
	}

	roomID := token.NewRoomID()

	// Best-effort uniqueness: on collision, retry once with a random
	// numeric suffix instead of a transactional reservation.
	exists, err := h.store.RoomExists(r.Context(), roomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	if exists {
		roomID = fmt.Sprintf("%s-%d", roomID, rand.Intn(1000))
	}

	room := &models.Room{
		ID:        roomID,
		CreatedAt: time.Now().UnixMilli(),
		HostKey:   token.NewHostKey(),
		IsPrivate: req.IsPrivate,
	}
	if req.IsPrivate {
		room.PasswordHash = token.HashPassword(req.Password)
	}

	if err := h.store.SetRoom(r.Context(), roomID, room); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	// Link the room to the creator's address for discovery. Best-effort:
	// a failed index write must not fail room creation.
	_ = h.store.AddRoomToIP(r.Context(), middleware.RealIP(r), roomID)

	metrics.RoomsCreated.Inc()

	h.JSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID:  roomID,
		HostKey: room.HostKey,
	})
}

// ListRooms handles listing all live room ids.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.GetAllRooms(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	h.JSON(w, http.StatusOK, ListRoomsResponse{Count: len(ids), Rooms: ids})
}

// GetRoom handles fetching a single room. Secrets are stripped from the
// response.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	room, err := h.store.GetRoom(r.Context(), roomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get room")
		return
	}
	if room == nil {
		h.Error(w, http.StatusNotFound, "room not found or has expired")
		return
	}

	h.JSON(w, http.StatusOK, room.Sanitized())
}

// DeleteRoom destroys a room when the caller presents the host key. The
// unauthorized response is the same whether the room is missing or the key
// is wrong.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	hostKey := r.Header.Get("X-Host-Key")

	if hostKey == "" {
		h.Error(w, http.StatusBadRequest, "host key is required")
		return
	}

	err := h.store.DeleteRoomAuthorized(r.Context(), roomID, hostKey)
	if errors.Is(err, store.ErrUnauthorized) {
		h.Error(w, http.StatusUnauthorized, "invalid host key")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete room")
		return
	}

	metrics.RoomsDeleted.Inc()
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "room destroyed",
	})
}

// VerifyPasswordRequest represents the password verification request.
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// VerifyPassword checks the password gate of a private room.
func (h *Handler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req VerifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.store.VerifyPassword(r.Context(), roomID, req.Password)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		h.Error(w, http.StatusNotFound, "room not found")
	case errors.Is(err, store.ErrUnauthorized):
		h.Error(w, http.StatusUnauthorized, "incorrect password")
	case err != nil:
		h.Error(w, http.StatusInternalServerError, "verification failed")
	default:
		h.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
