package session

import (
	"net/http"

	"convene/internal/rooms"
	"convene/internal/utils"
)

// StatsHandler handles GET /stats: pool capacity and per-type usage.
type StatsHandler struct {
	Tracker *rooms.Tracker
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "stats", Data: h.Tracker.Stats()})
}
