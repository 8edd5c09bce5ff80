package tokenstore

import "context"

// Keys of the durable layout. Their presence is the only on-disk record of
// a session; no expiry or version is stored next to them.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Tokens is the persisted half of a session.
type Tokens struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// IsZero reports whether nothing is stored.
func (t Tokens) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Repo persists the token pair. Implementations write and remove both keys
// as one unit so a reader never sees one old and one new value.
type Repo interface {
	// Load returns zero Tokens and a nil error when nothing is stored.
	Load(ctx context.Context) (Tokens, error)

	// Save overwrites both keys.
	Save(ctx context.Context, tokens Tokens) error

	// Clear removes both keys. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
