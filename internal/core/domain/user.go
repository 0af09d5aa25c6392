package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	Customer UserRole = "customer"
	Mechanic UserRole = "mechanic"
	Admin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Customer, Mechanic, Admin:
		return true
	}
	return false
}

// User is the stored identity. PasswordHash must never be serialized to clients;
// use Public for every outward projection.
type User struct {
	ID            uuid.UUID `bson:"_id"`
	FirstName     string    `bson:"first_name" validate:"required,max=100"`
	LastName      string    `bson:"last_name" validate:"required,max=100"`
	Email         string    `bson:"email" validate:"required,email"`
	PasswordHash  string    `bson:"password_hash"`
	PhoneNumber   string    `bson:"phone_number" validate:"max=32"`
	AadhaarNumber string    `bson:"aadhaar_number" validate:"max=32"`
	PANNumber     string    `bson:"pan_number" validate:"max=32"`
	Address       string    `bson:"address" validate:"max=500"`
	City          string    `bson:"city" validate:"max=100"`
	State         string    `bson:"state" validate:"max=100"`
	Role          UserRole  `bson:"role" validate:"required,oneof=customer mechanic admin"`
	ProfileImage  *string   `bson:"profile_image"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// swagger:model domain.PublicUser
type PublicUser struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Role         UserRole  `json:"role"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		Address:      u.Address,
		City:         u.City,
		State:        u.State,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Party is the slice of an identity embedded into service request views.
type Party struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
}

func (u *User) Party() *Party {
	return &Party{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		City:        u.City,
		State:       u.State,
	}
}

// ProfileUpdate carries the editable profile fields. Empty strings keep the stored value.
type ProfileUpdate struct {
	FirstName   string `validate:"max=100"`
	LastName    string `validate:"max=100"`
	PhoneNumber string `validate:"max=32"`
	Address     string `validate:"max=500"`
	City        string `validate:"max=100"`
	State       string `validate:"max=100"`
}

// Registration is the input of the sign-up flow.
type Registration struct {
	FirstName     string `validate:"required,max=100"`
	LastName      string `validate:"required,max=100"`
	Email         string `validate:"required,email"`
	Password      string `validate:"required,min=6,max=72"`
	PhoneNumber   string `validate:"max=32"`
	AadhaarNumber string `validate:"max=32"`
	PANNumber     string `validate:"max=32"`
	Address       string `validate:"max=500"`
	City          string `validate:"max=100"`
	State         string `validate:"max=100"`
}
