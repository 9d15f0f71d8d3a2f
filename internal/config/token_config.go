package config

import "time"

type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetBcryptCost() int
}

var _ TokenConfig = (*settings)(nil)

func (s *settings) GetJWTSecret() string {
	return s.JWTSecret
}

func (s *settings) GetAccessTokenExpiry() time.Duration {
	return parseDuration(s.AccessTokenTTL, 15*time.Minute)
}

func (s *settings) GetRefreshTokenExpiry() time.Duration {
	return parseDuration(s.RefreshTokenTTL, 7*24*time.Hour) // 7 days
}

func (s *settings) GetBcryptCost() int {
	return s.BcryptCost
}

// parseDuration falls back when the value is empty, malformed or not positive.
func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
