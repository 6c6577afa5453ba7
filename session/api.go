package session

import "github.com/jrsteele09/drivesim-admin/tokenstore"

// Auth endpoints, relative to the API base URL.
const (
	PathLogin   = "/api/v1/auth/login"
	PathLogout  = "/api/v1/auth/logout"
	PathMe      = "/api/v1/auth/me"
	PathRefresh = "/api/v1/auth/refresh"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned by the login and refresh endpoints. User is only sent by
// login, and not by every server version.
type tokenResponse struct {
	// Token is the bearer access token.
	Token string `json:"token"`

	// ExpiresIn is the token lifetime in seconds. When zero the expiry is read from
	// the token itself if it is a JWT.
	ExpiresIn int `json:"expiresIn,omitempty"`

	User *tokenstore.UserProfile `json:"user,omitempty"`
}
