package users

import (
	"strings"
	"time"
)

// Role is the portal a user belongs to.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                 string    `json:"id"`                 // Unique identifier for the user
	Email              string    `json:"email"`              // Lower-cased, unique
	Name               string    `json:"name,omitempty"`     // Display name, filled from OAuth profiles
	Role               Role      `json:"role"`               // Portal role
	PasswordHash       string    `json:"-"`                  // bcrypt hash - never serialize
	IsEmailVerified    bool      `json:"isEmailVerified"`    // Mailbox ownership proven by a link or provider
	IsPasswordSet      bool      `json:"isPasswordSet"`      // Password login allowed
	IsProfileCompleted bool      `json:"isProfileCompleted"` // Portal onboarding finished
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NormalizeEmail is applied to every email before it touches storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
