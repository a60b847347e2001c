package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewJoinCode returns a short uppercase code participants type to join a
// session.
func NewJoinCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}
