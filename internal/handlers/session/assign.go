package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/models"
	"convene/internal/registry"
	"convene/internal/utils"
)

type assignRequest struct {
	RoomType models.RoomType `json:"room_type"`
}

func decodeRoomType(w http.ResponseWriter, r *http.Request) (models.RoomType, bool) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return "", false
	}
	if !req.RoomType.Valid() || req.RoomType == models.RoomMain {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "a breakout room_type is required"})
		return "", false
	}
	return req.RoomType, true
}

// AssignRoomsHandler handles POST /sessions/{id}/assign (host only).
type AssignRoomsHandler struct {
	Registry *registry.Registry
}

func (h *AssignRoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, ok := decodeRoomType(w, r)
	if !ok {
		return
	}
	rec, err := h.Registry.Assign(r.Context(), chi.URLParam(r, "id"), rt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "rooms assigned", Data: rec})
}

// ReassignRoomsHandler handles POST /sessions/{id}/reassign (host only).
// Strictly release followed by assign.
type ReassignRoomsHandler struct {
	Registry *registry.Registry
}

func (h *ReassignRoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, ok := decodeRoomType(w, r)
	if !ok {
		return
	}
	rec, err := h.Registry.Reassign(r.Context(), chi.URLParam(r, "id"), rt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "rooms reassigned", Data: rec})
}

// ReleaseRoomsHandler handles DELETE /sessions/{id}/rooms (host only).
// Idempotent; releasing a session with no rooms succeeds.
type ReleaseRoomsHandler struct {
	Registry *registry.Registry
}

func (h *ReleaseRoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "rooms released"})
}
