package sessions

import (
	"time"

	"github.com/telecare/auth-server/geo"
)

// Session is one authenticated device or browser.
type Session struct {
	ID               string       `json:"id"`        // Unique session identifier (UUID), bound into the refresh token
	UserID           string       `json:"userId"`    // Owning user
	IP               string       `json:"ip"`        // Client IP at login
	UserAgent        string       `json:"userAgent"` // Raw user-agent string
	Device           geo.Device   `json:"device"`    // Parsed user-agent
	Address          *geo.Address `json:"address"`   // Coarse location, nil when unresolved
	Location         *geo.Point   `json:"location"`  // GeoJSON point when coordinates are known
	RefreshTokenHash string       `json:"-"`         // SHA-256 of the refresh token - never serialize
	CreatedAt        time.Time    `json:"createdAt"` // When session was created
	ExpiresAt        time.Time    `json:"expiresAt"` // When session expires
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
