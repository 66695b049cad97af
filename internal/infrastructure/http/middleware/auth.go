package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/healthylife/server/internal/infrastructure/security"
	apperrors "github.com/healthylife/server/pkg/errors"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*security.Claims, error)
}

// Authenticate reads a Bearer token and stores the user in the request
// context. When required is false, a missing or invalid token lets the
// request through anonymously.
func Authenticate(tokens TokenValidator, required bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				if required {
					writeError(w, r, apperrors.NewUnauthorizedError("Unauthorized"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				if required {
					writeError(w, r, apperrors.NewUnauthorizedError("Invalid token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserUUID(), claims.Email)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, userID uuid.UUID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

// GetUserIDFromContext extracts the authenticated user ID from request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetUserEmailFromContext extracts the authenticated user's email
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok
}
