package handlers

import (
	"net/http"

	"github.com/roomdrop/roomdrop/internal/api/middleware"
	"github.com/roomdrop/roomdrop/internal/models"
)

// NearbyRooms lets a client rediscover rooms created from its network
// address. The index may hold ids of rooms that have since expired or been
// deleted; each id is resolved against the live store and dead ones are
// dropped here, on the read path.
func (h *Handler) NearbyRooms(w http.ResponseWriter, r *http.Request) {
	ip := middleware.RealIP(r)

	ids, err := h.store.GetRoomsByIP(r.Context(), ip)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch nearby rooms")
		return
	}

	active := make([]models.SanitizedRoom, 0, len(ids))
	for _, id := range ids {
		room, err := h.store.GetRoom(r.Context(), id)
		if err != nil || room == nil {
			continue
		}
		active = append(active, room.Sanitized())
	}

	h.JSON(w, http.StatusOK, active)
}
