package session

import (
	"errors"
	"net/http"

	"convene/internal/orchestrator"
	"convene/internal/provider"
	"convene/internal/registry"
	"convene/internal/rooms"
	"convene/internal/utils"
)

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrSessionNotFound):
		utils.JSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "session not found"})
	case errors.Is(err, registry.ErrSessionClosed):
		utils.JSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "session closed to new participants"})
	case errors.Is(err, rooms.ErrInsufficientCapacity):
		utils.JSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, rooms.ErrAllocationConflict):
		// Should never happen with a single allocating process.
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, provider.ErrProviderUnavailable):
		utils.JSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: err.Error()})
	case errors.Is(err, orchestrator.ErrSessionComplete):
		utils.JSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "session already complete"})
	default:
		utils.JSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: err.Error()})
	}
}
