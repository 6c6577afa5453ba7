package mockapi

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrRevokedToken = errors.New("token revoked")
)

// accessClaims are the claims of an issued access token.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	UID   int64  `json:"uid"`
}

// tokenIssuer signs HS256 access tokens and tracks revoked and force-expired ids.
type tokenIssuer struct {
	secret        []byte
	ttl           time.Duration
	refreshWindow time.Duration // how long after expiry a token may still be refreshed
	now           func() time.Time

	mu      sync.Mutex
	issued  map[string]time.Time // jti -> exp
	revoked map[string]time.Time
	expired map[string]bool
}

func newTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:        []byte(secret),
		ttl:           ttl,
		refreshWindow: 24 * time.Hour,
		now:           now,
		issued:        make(map[string]time.Time),
		revoked:       make(map[string]time.Time),
		expired:       make(map[string]bool),
	}
}

func (ti *tokenIssuer) issue(uid int64, email string) (string, time.Duration, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
		UID:   uid,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", 0, errors.Wrap(err, "[tokenIssuer.issue] sign")
	}

	ti.mu.Lock()
	ti.issued[claims.ID] = exp
	ti.mu.Unlock()
	return signed, ti.ttl, nil
}

// verify accepts a token that is validly signed, unexpired and not revoked.
func (ti *tokenIssuer) verify(raw string) (*accessClaims, error) {
	claims, err := ti.parse(raw, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, err
	}
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if _, ok := ti.revoked[claims.ID]; ok {
		return nil, ErrRevokedToken
	}
	if ti.expired[claims.ID] {
		return nil, errors.Wrap(ErrInvalidToken, "expired")
	}
	return claims, nil
}

// verifyForRefresh also accepts expired tokens inside the refresh window.
func (ti *tokenIssuer) verifyForRefresh(raw string) (*accessClaims, error) {
	claims, err := ti.parse(raw, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil || ti.now().After(claims.ExpiresAt.Add(ti.refreshWindow)) {
		return nil, errors.Wrap(ErrInvalidToken, "outside refresh window")
	}
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if _, ok := ti.revoked[claims.ID]; ok {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

func (ti *tokenIssuer) parse(raw string, opts ...jwt.ParserOption) (*accessClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return claims, nil
}

func (ti *tokenIssuer) revoke(claims *accessClaims) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	exp := ti.now()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	ti.revoked[claims.ID] = exp
	delete(ti.issued, claims.ID)
}

// expireAll makes every token issued so far unusable for API calls while leaving it
// refreshable.
func (ti *tokenIssuer) expireAll() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	for jti := range ti.issued {
		ti.expired[jti] = true
	}
}

// cleanup forgets tokens that are past their refresh window. verify and
// verifyForRefresh reject them without any bookkeeping from then on.
func (ti *tokenIssuer) cleanup() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	cutoff := ti.now().Add(-ti.refreshWindow)
	for jti, exp := range ti.revoked {
		if exp.Before(cutoff) {
			delete(ti.revoked, jti)
		}
	}
	for jti, exp := range ti.issued {
		if exp.Before(cutoff) {
			delete(ti.issued, jti)
		}
	}
	for jti := range ti.expired {
		if _, ok := ti.issued[jti]; !ok {
			delete(ti.expired, jti)
		}
	}
}
