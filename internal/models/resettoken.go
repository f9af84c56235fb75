package models

import (
	"time"

	"github.com/google/uuid"
)

// One-time password recovery credential.
// Only a bcrypt hash of the secret is stored, the plaintext secret is
// delivered to the user out-of-band and never persisted.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
}
