package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/drivesim-admin/internal/errors"
)

// Persisted key layout. Every key is removed together by Clear.
const (
	KeyToken           = "token"
	KeyTokenExpiry     = "tokenExpiry"
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"
)

var allKeys = []string{KeyToken, KeyTokenExpiry, KeyUser, KeyIsAuthenticated}

// ErrEmptyToken is returned by Set when the token value is blank.
var ErrEmptyToken = apperrors.ErrEmptyToken

// Snapshot is a consistent view of everything the Store holds.
type Snapshot struct {
	Token         *AccessToken
	Profile       *UserProfile
	Authenticated bool // persisted isAuthenticated flag
}

// Store holds the current access token and cached user profile on top of a KV
// medium. It does not inspect token contents.
type Store struct {
	kv  KV
	now func() time.Time
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used to compute remaining token lifetimes.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over kv.
func New(kv KV, opts ...StoreOption) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored access token, or nil when there is none.
func (s *Store) Get(ctx context.Context) (*AccessToken, error) {
	values, err := s.kv.GetMany(ctx, KeyToken, KeyTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("[Store.Get] %w", err)
	}
	return s.decodeToken(values), nil
}

// Profile returns the cached user profile, or nil when there is none.
func (s *Store) Profile(ctx context.Context) (*UserProfile, error) {
	values, err := s.kv.GetMany(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("[Store.Profile] %w", err)
	}
	return decodeProfile(values)
}

// Snapshot reads token, profile and flag in one call.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	values, err := s.kv.GetMany(ctx, allKeys...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("[Store.Snapshot] %w", err)
	}
	profile, err := decodeProfile(values)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Token:         s.decodeToken(values),
		Profile:       profile,
		Authenticated: values[KeyIsAuthenticated] == "true",
	}, nil
}

// Set stores token and, when non-nil, profile as one batch. A nil profile leaves the
// cached profile untouched.
func (s *Store) Set(ctx context.Context, token AccessToken, profile *UserProfile) error {
	if token.Value == "" {
		return ErrEmptyToken
	}

	set := map[string]string{
		KeyToken:           token.Value,
		KeyIsAuthenticated: "true",
	}
	var del []string
	if token.Expiry.IsZero() {
		del = append(del, KeyTokenExpiry)
	} else {
		set[KeyTokenExpiry] = token.Expiry.UTC().Format(time.RFC3339)
	}
	if profile != nil {
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("[Store.Set] marshal profile: %w", err)
		}
		set[KeyUser] = string(data)
	}

	if err := s.kv.Write(ctx, set, del); err != nil {
		return fmt.Errorf("[Store.Set] %w", err)
	}
	return nil
}

// Replace stores a new login episode: token and profile are written together and a nil
// profile removes any profile cached by a previous episode.
func (s *Store) Replace(ctx context.Context, token AccessToken, profile *UserProfile) error {
	if profile != nil {
		return s.Set(ctx, token, profile)
	}
	if token.Value == "" {
		return ErrEmptyToken
	}
	set := map[string]string{
		KeyToken:           token.Value,
		KeyIsAuthenticated: "true",
	}
	del := []string{KeyUser}
	if token.Expiry.IsZero() {
		del = append(del, KeyTokenExpiry)
	} else {
		set[KeyTokenExpiry] = token.Expiry.UTC().Format(time.RFC3339)
	}
	if err := s.kv.Write(ctx, set, del); err != nil {
		return fmt.Errorf("[Store.Replace] %w", err)
	}
	return nil
}

// SetProfile overwrites only the cached profile.
func (s *Store) SetProfile(ctx context.Context, profile UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("[Store.SetProfile] marshal profile: %w", err)
	}
	if err := s.kv.Write(ctx, map[string]string{KeyUser: string(data)}, nil); err != nil {
		return fmt.Errorf("[Store.SetProfile] %w", err)
	}
	return nil
}

// Clear removes every session key. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Write(ctx, nil, allKeys); err != nil {
		return fmt.Errorf("[Store.Clear] %w", err)
	}
	return nil
}

func (s *Store) decodeToken(values map[string]string) *AccessToken {
	value := values[KeyToken]
	if value == "" {
		return nil
	}
	token := &AccessToken{Value: value}
	if raw, ok := values[KeyTokenExpiry]; ok {
		if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
			token.Expiry = expiry
			if remaining := expiry.Sub(s.now()); remaining > 0 {
				token.ExpiresIn = int(remaining / time.Second)
			}
		}
	}
	return token
}

func decodeProfile(values map[string]string) (*UserProfile, error) {
	raw, ok := values[KeyUser]
	if !ok || raw == "" {
		return nil, nil
	}
	var profile UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, nil
}

// String is used in logs; it never prints the token value.
func (s Snapshot) String() string {
	return "token=" + strconv.FormatBool(s.Token != nil) +
		" profile=" + strconv.FormatBool(s.Profile != nil) +
		" authenticated=" + strconv.FormatBool(s.Authenticated)
}
