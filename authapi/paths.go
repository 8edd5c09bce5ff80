// Package authapi is the typed client for the auth and user endpoints.
//
// Calls that need a bearer token go through the gateway. Login, refresh and
// password reset are unauthenticated and use a plain HTTP path, so a 401 on
// them is never treated as an expired session.
package authapi

const (
	PathLogin                = "/auth/login"
	PathLoginGoogle          = "/auth/login/google"
	PathRefresh              = "/auth/refresh"
	PathMe                   = "/users/me"
	PathRequestPasswordReset = "/users/request-password-reset"
	PathResetPassword        = "/users/reset-password"
)
