/*
auth.go - Token issuing, PIN hashing, and auth middleware

PURPOSE:
  Single-household app, so auth is deliberately light: a signed bearer
  token identifies the user for 30 days, and an optional 4-8 digit PIN
  (bcrypt-hashed, never stored raw) gates login when set.

TOKEN:
  JWT, HS256, subject = user ID. No refresh flow; clients just log in
  again when the token expires.

MIDDLEWARE:
  RequireAuth:  Bearer token -> user ID in the request context.
  RequireAdmin: RequireAuth + IsAdmin check against the store.
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 30 * 24 * time.Hour

type contextKey string

const userIDKey contextKey = "userID"

// =============================================================================
// TOKENS
// =============================================================================

// IssueToken signs a bearer token for the user.
func (h *Handler) IssueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}

func (h *Handler) parseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return []byte(h.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// =============================================================================
// PIN
// =============================================================================

func hashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPin(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		userID, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// RequireAdmin allows only authenticated admins through.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.Store.GetUser(r.Context(), requestUserID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load user", err)
			return
		}
		if user == nil || !user.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// requestUserID returns the authenticated user ID set by RequireAuth.
func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
