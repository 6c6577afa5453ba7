package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches a *StatusError carrying 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServer matches a *StatusError carrying a 5xx status.
	ErrServer = errors.New("server error")
	// ErrClient matches a *StatusError carrying any other 4xx status.
	ErrClient = errors.New("client error")
	// ErrNetwork matches a *NetworkError.
	ErrNetwork = errors.New("network error")
)

// StatusError is returned for responses with status >= 400. The body has already
// been read and closed.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if len(e.Body) > 0 && len(e.Body) <= 512 {
		msg += ": " + string(e.Body)
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	case ErrClient:
		return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
	}
	return false
}

// NetworkError is a transport level failure: the request never produced a response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
