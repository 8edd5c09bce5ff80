package config

import "time"

type SessionConfig interface {
	GetRestoreTimeout() time.Duration
	GetGoogleClientID() string
	GetGoogleIssuer() string
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetRestoreTimeout() time.Duration {
	return GetEnvDuration("SESSION_RESTORE_TIMEOUT", 15*time.Second)
}

// GetGoogleClientID enables local verification of Google ID tokens when set.
func (Session) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Session) GetGoogleIssuer() string {
	return GetEnv("GOOGLE_ISSUER", "https://accounts.google.com")
}
