// Package ephemeral stores single-use, time-boxed tokens that back emailed links.
package ephemeral

import "time"

// Type names the flow a token belongs to.
type Type string

const (
	TypeEmailVerification Type = "email-verification"
	TypeMagicLink         Type = "magic-link"
	TypePasswordReset     Type = "password-reset"
)

// Payload is opaque to the store; flows agree on their own keys.
type Payload map[string]string

type Token struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Type      Type      `json:"type"`
	Payload   Payload   `json:"payload,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the token is unusable at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
