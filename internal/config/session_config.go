package config

import (
	"strings"
	"time"
)

type SessionConfig interface {
	GetMaxSessionsPerUser() int
	GetSessionExpiry() time.Duration
	GetEphemeralTokenTTL() time.Duration
	GetEphemeralSweepInterval() time.Duration
}

var _ SessionConfig = (*settings)(nil)

func (s *settings) GetMaxSessionsPerUser() int {
	return s.MaxSessionsPerUser
}

// GetSessionExpiry tracks the refresh token lifetime.
func (s *settings) GetSessionExpiry() time.Duration {
	return s.GetRefreshTokenExpiry()
}

func (s *settings) GetEphemeralTokenTTL() time.Duration {
	return parseDuration(s.EphemeralTokenTTL, 10*time.Minute)
}

func (s *settings) GetEphemeralSweepInterval() time.Duration {
	return parseDuration(s.EphemeralSweepInterval, time.Minute)
}

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type StorageConfig interface {
	GetDatabaseURL() string
	GetRedisURL() string
	GetEphemeralBackend() string
}

var _ StorageConfig = (*settings)(nil)

func (s *settings) GetDatabaseURL() string {
	return s.DatabaseURL
}

func (s *settings) GetRedisURL() string {
	return s.RedisURL
}

func (s *settings) GetEphemeralBackend() string {
	return strings.ToLower(s.EphemeralBackend)
}
