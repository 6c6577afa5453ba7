package session

import (
	apperrors "github.com/jrsteele09/drivesim-admin/internal/errors"
)

// ErrSessionEnded is returned by RefreshToken when a logout happened while the refresh
// call was in flight. The refreshed token is discarded.
var ErrSessionEnded = apperrors.ErrSessionEnded

var errMissingToken = apperrors.Wrapf(apperrors.ErrEmptyToken, "auth response carried no token")

// ErrorKind classifies an AuthError.
type ErrorKind int

const (
	// InvalidCredentials means the login endpoint rejected the credentials.
	InvalidCredentials ErrorKind = iota + 1
	// LoginFailed means login could not complete for a network or server reason.
	LoginFailed
	// RefreshFailed means the token could not be refreshed. It ends the session.
	RefreshFailed
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case LoginFailed:
		return "login failed"
	case RefreshFailed:
		return "refresh failed"
	default:
		return "auth error"
	}
}

// AuthError is returned by Login and RefreshToken.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is lets callers match the shared sentinels for each kind.
func (e *AuthError) Is(target error) bool {
	switch e.Kind {
	case InvalidCredentials:
		return target == apperrors.ErrInvalidCredentials
	case RefreshFailed:
		return target == apperrors.ErrRefreshFailed
	}
	return false
}

// IsKind reports whether err is an *AuthError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AuthError
	return apperrors.As(err, &ae) && ae.Kind == kind
}
