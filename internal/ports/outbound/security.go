package outbound

import "github.com/google/uuid"

// TokenIssuer signs session tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (string, error)
}
