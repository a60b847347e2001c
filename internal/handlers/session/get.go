package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"convene/internal/registry"
	"convene/internal/utils"
)

type GetSessionHandler struct {
	Registry *registry.Registry
}

// ServeHTTP handles GET /sessions/{id}
func (h *GetSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	rec, err := h.Registry.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "session fetched", Data: rec})
}
