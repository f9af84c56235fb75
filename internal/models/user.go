package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string
	Email          string
	Phone          string
	HashedPassword string

	// Currently active refresh token. Single slot: one live session per
	// user, nil means no session.
	RefreshToken *string
}

// Public is the user shape that may be returned to clients.
// Password hash and refresh token never leave the server.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}
