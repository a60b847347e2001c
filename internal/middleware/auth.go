package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"convene/internal/utils"
)

type contextKey string

// SessionIDKey carries the session id a validated host token grants
// authority over.
const SessionIDKey contextKey = "session_id"

// AuthHost guards the mutating session endpoints. Only the holder of the
// host token issued at session creation may allocate, release or advance,
// and only for that session.
func AuthHost(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				utils.JSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "host token required"})
				return
			}

			sessionID, err := utils.ParseHostToken(token, secret)
			if err != nil || sessionID == "" {
				utils.JSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "invalid host token"})
				return
			}
			if urlID := chi.URLParam(r, "id"); urlID != "" && urlID != sessionID {
				utils.JSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "host token is for a different session"})
				return
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
