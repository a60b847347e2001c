package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/registry"
	"convene/internal/utils"
)

type ParticipantRoomHandler struct {
	Registry *registry.Registry
}

// ServeHTTP handles GET /sessions/{id}/participants/{participantID}/room.
// The optional name query parameter enables the late-joiner fallback: when
// the participant id is not in the assignment, the first assigned
// participant with the same name wins. A session with no assignment yet is
// the "waiting" state, not an error.
func (h *ParticipantRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	participantID := chi.URLParam(r, "participantID")
	name := r.URL.Query().Get("name")

	room, err := h.Registry.GetParticipantRoom(r.Context(), sessionID, participantID, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if room == nil {
		utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "waiting for assignment"})
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "room resolved", Data: room})
}
