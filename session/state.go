package session

import "github.com/jrsteele09/drivesim-admin/tokenstore"

// State is the authentication state of the admin session.
type State int

const (
	// StateUnknown is the state before the stored session has been checked.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a point-in-time view of the manager and its token store.
type Session struct {
	Token   *tokenstore.AccessToken
	Profile *tokenstore.UserProfile
	State   State
}

// Authenticated reports whether the session was authenticated when the view was taken.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}
