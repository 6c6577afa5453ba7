package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Attempt is one submission of a request through the middleware chain. Number is 0
// for the original submission and 1 for the single automatic retry.
type Attempt struct {
	Request   *http.Request
	Number    int
	NoRefresh bool // never refresh-and-retry this request (auth endpoints)

	body []byte
}

// NewAttempt wraps req as a first attempt. The body is buffered so the request can be
// replayed once.
func NewAttempt(req *http.Request) (*Attempt, error) {
	a := &Attempt{Request: req}
	if req.Body == nil || req.Body == http.NoBody {
		return a, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	a.body = body
	a.resetBody()
	return a, nil
}

// Retry returns the follow-up attempt: a clone of the request with a fresh body and
// Number incremented.
func (a *Attempt) Retry(ctx context.Context) *Attempt {
	next := &Attempt{
		Request:   a.Request.Clone(ctx),
		Number:    a.Number + 1,
		NoRefresh: a.NoRefresh,
		body:      a.body,
	}
	next.resetBody()
	return next
}

// Retried reports whether this attempt is already the automatic retry.
func (a *Attempt) Retried() bool {
	return a.Number > 0
}

func (a *Attempt) resetBody() {
	if a.body == nil {
		return
	}
	body := a.body
	a.Request.Body = io.NopCloser(bytes.NewReader(body))
	a.Request.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	a.Request.ContentLength = int64(len(body))
}

// RequestOption customises a single call made through Client.Do.
type RequestOption func(*Attempt)

// NoRefresh marks the request so a 401 is returned to the caller without a refresh.
func NoRefresh() RequestOption {
	return func(a *Attempt) {
		a.NoRefresh = true
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(a *Attempt) {
		a.Request.Header.Set(key, value)
	}
}
