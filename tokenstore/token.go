package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// AccessToken is the opaque bearer credential issued by the login and refresh endpoints.
type AccessToken struct {
	Value     string    // Raw token string sent as "Authorization: Bearer <Value>"
	ExpiresIn int       // Lifetime in seconds as reported by the server, 0 when unknown
	Expiry    time.Time // Absolute expiry, zero when unknown
}

// NewAccessToken builds an AccessToken issued at now. When the server does not report a
// lifetime and the value is a JWT, the expiry is taken from its exp claim.
func NewAccessToken(value string, expiresIn int, now time.Time) AccessToken {
	t := AccessToken{Value: value, ExpiresIn: expiresIn}
	if expiresIn > 0 {
		t.Expiry = now.Add(time.Duration(expiresIn) * time.Second)
		return t
	}
	if exp, ok := ExpiryFromJWT(value); ok {
		t.Expiry = exp
		if remaining := exp.Sub(now); remaining > 0 {
			t.ExpiresIn = int(remaining / time.Second)
		}
	}
	return t
}

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature. The
// server is the only party that validates tokens; the client only uses exp as a hint.
func ExpiryFromJWT(value string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token has a known expiry that is not after now.
func (t AccessToken) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}

// OAuth2 exposes the token in the golang.org/x/oauth2 shape so callers can use
// SetAuthHeader and the oauth2 helpers.
func (t AccessToken) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      t.Expiry,
		ExpiresIn:   int64(t.ExpiresIn),
	}
}
