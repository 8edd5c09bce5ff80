package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect when the token is not a parseable JWT.
// Opaque tokens are legal; callers treat this as "no metadata".
var ErrNotJWT = errors.New("token is not a JWT")

// Claims is the subset of an access token the client reads for logging and
// expiry hints. Nothing here is verified: the server remains the authority.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token has no exp claim
	IssuedAt  time.Time
}

// Inspect parses a JWT without verifying its signature.
func Inspect(rawToken string) (Claims, error) {
	if strings.Count(rawToken, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, ErrNotJWT
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// Expired reports whether the claims carry an expiry that is at or before
// now+skew. Tokens without exp never report expired.
func (c Claims) Expired(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now.Add(skew))
}
