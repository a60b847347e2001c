package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/models"
	"convene/internal/registry"
	"convene/internal/utils"
)

type JoinSessionHandler struct {
	Registry *registry.Registry
}

type JoinSessionRequest struct {
	Name string `json:"name"`
}

type JoinSessionResponse struct {
	ParticipantID string                `json:"participant_id"`
	SessionID     string                `json:"session_id"`
	Record        *models.SessionRecord `json:"record"`
}

// ServeHTTP handles POST /sessions/{code}/join. Late joiners are accepted;
// they resolve a room through the name fallback until the next allocation
// includes them directly.
func (h *JoinSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "join code required in path"})
		return
	}

	var req JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Name == "" {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "name is required"})
		return
	}

	rec, p, err := h.Registry.Join(r.Context(), code, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Joined session", Data: JoinSessionResponse{
		ParticipantID: p.ID,
		SessionID:     rec.SessionID,
		Record:        rec,
	}})
}
