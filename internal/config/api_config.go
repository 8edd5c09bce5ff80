package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshCoalescing() bool
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the server root without a trailing slash
// (e.g. "https://api.example.com").
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:8000"), "/")
}

// GetRequestTimeout bounds every single HTTP attempt made by the gateway.
func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration("API_REQUEST_TIMEOUT", 30*time.Second)
}

// GetRefreshCoalescing reports whether concurrent 401s share one refresh call.
func (API) GetRefreshCoalescing() bool {
	return GetEnvBool("API_REFRESH_COALESCE", true)
}
