// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SessionConfig
	GoogleConfig
	GeoConfig
	StorageConfig
	ProxyConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetFrontendURL() string
	GetLogLevel() string
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpPassword() string
	GetSmtpAccount() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// settings is the flat view viper unmarshals into. The getter groups in this
// package are all method sets on it.
type settings struct {
	Port           string `mapstructure:"PORT"`
	AppName        string `mapstructure:"APP_NAME"`
	Env            string `mapstructure:"ENV"`
	BaseURL        string `mapstructure:"BASE_URL"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	SmtpHost       string `mapstructure:"SMTP_HOST"`
	SmtpPort       string `mapstructure:"SMTP_PORT"`
	SmtpAccount    string `mapstructure:"SMTP_ACCOUNT"`
	SmtpPassword   string `mapstructure:"SMTP_PASSWORD"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  string `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	BcryptCost      int    `mapstructure:"BCRYPT_COST"`

	MaxSessionsPerUser     int    `mapstructure:"MAX_SESSIONS_PER_USER"`
	EphemeralTokenTTL      string `mapstructure:"EPHEMERAL_TOKEN_TTL"`
	EphemeralSweepInterval string `mapstructure:"EPHEMERAL_SWEEP_INTERVAL"`
	EphemeralBackend       string `mapstructure:"EPHEMERAL_BACKEND"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	GeoLookupURL     string `mapstructure:"GEO_LOOKUP_URL"`
	GeoLookupTimeout string `mapstructure:"GEO_LOOKUP_TIMEOUT"`
	GeoDBPath        string `mapstructure:"GEO_DB_PATH"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
}

var _ Config = (*settings)(nil)

// Load reads .env (if present) and the environment. Environment variables win.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	setDefaults(v)

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_NAME", "Telecare Auth")
	v.SetDefault("ENV", "DEV")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_ACCOUNT", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("TRUSTED_PROXIES", "127.0.0.0/8,::1,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("MAX_SESSIONS_PER_USER", 5)
	v.SetDefault("EPHEMERAL_TOKEN_TTL", "10m")
	v.SetDefault("EPHEMERAL_SWEEP_INTERVAL", "1m")
	v.SetDefault("EPHEMERAL_BACKEND", "")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")

	v.SetDefault("GEO_LOOKUP_URL", "http://ip-api.com/json")
	v.SetDefault("GEO_LOOKUP_TIMEOUT", "2s")
	v.SetDefault("GEO_DB_PATH", "./data/GeoLite2-City.mmdb")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
}

func (s *settings) validate() error {
	if s.Port == "" {
		return errors.New("config: PORT must be set")
	}
	if s.JWTSecret == "" {
		if s.Env != "DEV" {
			return errors.New("config: JWT_SECRET must be set outside DEV")
		}
		s.JWTSecret = "dev-only-secret"
	}
	if s.BcryptCost < 4 || s.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if s.MaxSessionsPerUser < 1 {
		return errors.New("config: MAX_SESSIONS_PER_USER must be at least 1")
	}
	if _, err := ParseTrustedProxies(s.TrustedProxies); err != nil {
		return fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
	}
	// Unset backend follows the database: Postgres when there is one, memory otherwise.
	if s.EphemeralBackend == "" {
		s.EphemeralBackend = BackendMemory
		if s.DatabaseURL != "" {
			s.EphemeralBackend = BackendPostgres
		}
	}
	switch strings.ToLower(s.EphemeralBackend) {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return errors.New("config: EPHEMERAL_BACKEND must be postgres, redis or memory")
	}
	return nil
}
