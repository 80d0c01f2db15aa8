package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/roomdrop/roomdrop/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store          *store.Facade
	maxUploadBytes int64
}

// NewHandler creates a new Handler backed by the storage facade.
func NewHandler(st *store.Facade, maxUploadBytes int64) *Handler {
	return &Handler{store: st, maxUploadBytes: maxUploadBytes}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
