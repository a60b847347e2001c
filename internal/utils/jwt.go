package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateHostToken signs a token granting allocation authority over one
// session. Only the holder may call mutating session endpoints, which is
// what enforces the single-host assumption.
func GenerateHostToken(sessionID string, secret string, ttlHours int) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"role":       "host",
		"exp":        time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseHostToken returns the session id the token is valid for.
func ParseHostToken(tokenStr string, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenMalformed
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}
	sessionID, ok := claims["session_id"].(string)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}
	if role, _ := claims["role"].(string); role != "host" {
		return "", jwt.ErrTokenMalformed
	}
	return sessionID, nil
}
