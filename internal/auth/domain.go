package auth

import (
	"time"

	"github.com/google/uuid"
)

// Token is a tenant API credential. Only the bcrypt hash of the secret part is
// stored; Prefix is kept in clear for lookup.
type Token struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    uuid.UUID
	Name       string
	Prefix     string
	SecretHash string
	Revoked    bool
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// IssuedToken is returned once when a token is created.
type IssuedToken struct {
	Token     Token
	Plaintext string
}
