package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account holder of the fitness tracker
type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Password          string     `json:"-"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreateUserRequest represents the signup payload
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"required,min=1,max=100,nospaces"`
	Password string `json:"password" binding:"required,max=128,strongpassword"`
}
