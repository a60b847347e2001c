package session

import (
	"encoding/json"
	"net/http"

	"convene/internal/models"
	"convene/internal/orchestrator"
	"convene/internal/registry"
	"convene/internal/utils"
)

type CreateSessionHandler struct {
	Registry     *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	JWTSecret    string
	JWTTTLHrs    int
}

type CreateSessionRequest struct {
	HostName          string                    `json:"host_name"`
	DurationMinutes   int                       `json:"duration_minutes"`
	RoomConfiguration *models.RoomConfiguration `json:"room_configuration,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string                `json:"session_id"`
	JoinCode  string                `json:"join_code"`
	HostToken string                `json:"host_token"`
	Record    *models.SessionRecord `json:"record"`
}

// ServeHTTP handles POST /sessions
func (h *CreateSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if req.HostName == "" {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "host_name is required"})
		return
	}
	if req.DurationMinutes <= 0 {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "duration_minutes must be positive"})
		return
	}

	cfg := models.RoomConfiguration{}
	if req.RoomConfiguration != nil {
		cfg = *req.RoomConfiguration
		if cfg.RoomType != "" && (!cfg.RoomType.Valid() || cfg.RoomType == models.RoomMain) {
			utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "invalid room_type"})
			return
		}
	}

	schedule := h.Orchestrator.Plan().ComputeSchedule(req.DurationMinutes)
	rec, err := h.Registry.Create(r.Context(), req.HostName, req.DurationMinutes, cfg, schedule)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := utils.GenerateHostToken(rec.SessionID, h.JWTSecret, h.JWTTTLHrs)
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to generate host token"})
		return
	}

	utils.JSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Session created", Data: CreateSessionResponse{
		SessionID: rec.SessionID,
		JoinCode:  rec.JoinCode,
		HostToken: token,
		Record:    rec,
	}})
}
