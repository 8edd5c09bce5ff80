package session

import "errors"

var (
	// ErrInvalidTokenPair is returned by SetTokens when either token is missing.
	ErrInvalidTokenPair = errors.New("invalid token pair")

	// ErrNoAccessToken is returned when an operation needs an access token and none is held.
	ErrNoAccessToken = errors.New("no access token")

	// ErrEmptyIdentity is returned when the identity endpoint answered without a user.
	ErrEmptyIdentity = errors.New("empty identity record")

	// ErrAlreadyRestored is returned when Restore is called more than once.
	ErrAlreadyRestored = errors.New("session already restored")

	// ErrRestorePending is returned by login operations issued before Restore has run.
	ErrRestorePending = errors.New("session restore has not completed")

	// ErrRestoreFailed wraps the reason persisted credentials were rejected.
	ErrRestoreFailed = errors.New("session restore failed")

	// ErrPartialLogin is returned when tokens were issued and persisted but the
	// identity fetch that follows failed. The tokens stay persisted.
	ErrPartialLogin = errors.New("login succeeded but identity could not be fetched")
)

// CodeInvalidIDToken is the normalized error code for a Google ID token that
// failed local verification.
const CodeInvalidIDToken = "INVALID_ID_TOKEN"
