package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/orchestrator"
	"convene/internal/registry"
	"convene/internal/utils"
)

// StartSessionHandler handles POST /sessions/{id}/start (host only).
type StartSessionHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

func (h *StartSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "session started", Data: rec})
}

// AdvanceSubstageHandler handles POST /sessions/{id}/advance (host only).
type AdvanceSubstageHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

func (h *AdvanceSubstageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.AdvanceSubstage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "advanced", Data: rec})
}

// AdvancePhaseHandler handles POST /sessions/{id}/advance-phase (host only).
type AdvancePhaseHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

func (h *AdvancePhaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Orchestrator.AdvancePhase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "advanced to next phase", Data: rec})
}

// JumpHandler handles POST /sessions/{id}/jump (host only), the explicit
// operator override.
type JumpHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

type jumpRequest struct {
	Phase    int `json:"phase"`
	Substage int `json:"substage"`
}

func (h *JumpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
		return
	}
	pos := orchestrator.Position{Phase: req.Phase, Substage: req.Substage}
	if !h.Orchestrator.Plan().Contains(pos) {
		utils.JSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "phase/substage outside the session plan"})
		return
	}
	rec, err := h.Orchestrator.JumpTo(r.Context(), chi.URLParam(r, "id"), pos)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "jumped", Data: rec})
}

// EndSessionHandler handles DELETE /sessions/{id} (host only): releases
// rooms, archives when enabled, deletes the record.
type EndSessionHandler struct {
	Registry *registry.Registry
}

func (h *EndSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "session ended"})
}
