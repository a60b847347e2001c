package utils

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope every endpoint writes. Data carries the
// payload (session record, room lookup, pool stats); a failure sets
// Success=false with the reason in Message and no Data.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes the envelope with the given status code. The status line is
// committed before encoding, so an encode failure cannot be reported to the
// client anymore.
func JSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
