package config

import (
	"fmt"
	"strings"
)

var _ EnvConfig = (*settings)(nil)

func (s *settings) GetPort() string {
	port := s.Port
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s *settings) GetAppName() string {
	return s.AppName
}

// GetEnv returns the deployment environment, "DEV" when unset.
func (s *settings) GetEnv() string {
	if s.Env == "" {
		return "DEV"
	}
	return s.Env
}

// GetBaseURL returns the public URL of this service (e.g., "https://auth.example.com")
func (s *settings) GetBaseURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// GetFrontendURL is where emailed links land; the frontend posts the token back.
func (s *settings) GetFrontendURL() string {
	return strings.TrimRight(s.FrontendURL, "/")
}

func (s *settings) GetLogLevel() string {
	return s.LogLevel
}

func (s *settings) GetSmtpHost() string {
	return s.SmtpHost
}

func (s *settings) GetSmtpPort() string {
	return s.SmtpPort
}

func (s *settings) GetSmtpPassword() string {
	return s.SmtpPassword
}

func (s *settings) GetSmtpAccount() string {
	return s.SmtpAccount
}
