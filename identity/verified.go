package identity

import "github.com/telecare/auth-server/users"

// Strategy tags how an identity was proven.
type Strategy string

const (
	StrategyPassword          Strategy = "password"
	StrategyEmailVerification Strategy = "email-verification"
	StrategyMagicLink         Strategy = "magic-link"
	StrategyGoogleCode        Strategy = "google-code"
	StrategyGoogleIDToken     Strategy = "google-id-token"
)

// Attributes are facts a strategy has verified about the mailbox owner.
type Attributes struct {
	EmailVerified bool
	PasswordHash  string // set when the strategy proved a new password
	Name          string
}

// VerifiedIdentity is what every authentication strategy hands to the resolver.
type VerifiedIdentity struct {
	Strategy   Strategy
	Email      string
	Role       users.Role // only needed when the identity is new
	Attributes Attributes
}

// FromPassword wraps a user whose password has already been checked.
func FromPassword(email string) VerifiedIdentity {
	return VerifiedIdentity{Strategy: StrategyPassword, Email: email}
}

// FromEmailVerification carries the password chosen at registration.
func FromEmailVerification(email string, role users.Role, passwordHash string) VerifiedIdentity {
	return VerifiedIdentity{
		Strategy: StrategyEmailVerification,
		Email:    email,
		Role:     role,
		Attributes: Attributes{
			EmailVerified: true,
			PasswordHash:  passwordHash,
		},
	}
}

func FromMagicLink(email string, role users.Role) VerifiedIdentity {
	return VerifiedIdentity{
		Strategy:   StrategyMagicLink,
		Email:      email,
		Role:       role,
		Attributes: Attributes{EmailVerified: true},
	}
}

// FromGoogle is used by both the code and the ID token callbacks.
func FromGoogle(strategy Strategy, email, name string, role users.Role) VerifiedIdentity {
	return VerifiedIdentity{
		Strategy: strategy,
		Email:    email,
		Role:     role,
		Attributes: Attributes{
			EmailVerified: true,
			Name:          name,
		},
	}
}
