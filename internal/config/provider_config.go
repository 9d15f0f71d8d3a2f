package config

import "time"

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
}

var _ GoogleConfig = (*settings)(nil)

func (s *settings) GetGoogleClientID() string {
	return s.GoogleClientID
}

func (s *settings) GetGoogleClientSecret() string {
	return s.GoogleClientSecret
}

func (s *settings) GetGoogleRedirectURL() string {
	if s.GoogleRedirectURL == "" {
		return s.GetFrontendURL() + "/auth/google/callback"
	}
	return s.GoogleRedirectURL
}

type GeoConfig interface {
	GetGeoLookupURL() string
	GetGeoLookupTimeout() time.Duration
	GetGeoDBPath() string
}

var _ GeoConfig = (*settings)(nil)

func (s *settings) GetGeoLookupURL() string {
	return s.GeoLookupURL
}

func (s *settings) GetGeoLookupTimeout() time.Duration {
	return parseDuration(s.GeoLookupTimeout, 2*time.Second)
}

func (s *settings) GetGeoDBPath() string {
	return s.GeoDBPath
}
