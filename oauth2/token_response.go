package oauth2

import (
	"errors"
	"strings"

	"github.com/jrsteele09/go-auth-client/token"
	xoauth2 "golang.org/x/oauth2"
)

// BearerTokenType is the only token type the API issues.
const BearerTokenType = "bearer"

// ErrIncompleteTokenPair is returned when either half of a pair is missing.
var ErrIncompleteTokenPair = errors.New("token pair requires both access and refresh tokens")

// TokenPair is the body returned by /auth/login, /auth/login/google and
// /auth/refresh.
type TokenPair struct {
	// AccessToken is the short lived bearer credential.
	// Usage: "Authorization: Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is only ever sent to /auth/refresh.
	RefreshToken string `json:"refresh_token"`

	// TokenType is "bearer" when present.
	TokenType string `json:"token_type,omitempty"`
}

// Validate checks both tokens are present and the type, when given, is bearer.
func (p TokenPair) Validate() error {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return ErrIncompleteTokenPair
	}
	if p.TokenType != "" && !strings.EqualFold(p.TokenType, BearerTokenType) {
		return errors.New("unsupported token type " + p.TokenType)
	}
	return nil
}

// IsZero reports whether neither token is set.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// OAuth2Token converts the pair for use with golang.org/x/oauth2. Expiry is
// read from the access token's exp claim when it is a JWT; opaque tokens get
// a zero expiry, which x/oauth2 treats as never expiring.
func (p TokenPair) OAuth2Token() *xoauth2.Token {
	t := &xoauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
	if claims, err := token.Inspect(p.AccessToken); err == nil {
		t.Expiry = claims.ExpiresAt
	}
	return t
}
