package domain

import (
	"github.com/google/uuid"
)

type TokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   UserRole
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string      `json:"token"`
	User  *PublicUser `json:"user"`
}
