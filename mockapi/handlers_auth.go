package mockapi

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/drivesim-admin/tokenstore"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string                  `json:"token"`
	ExpiresIn int                     `json:"expiresIn"`
	User      *tokenstore.UserProfile `json:"user,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid login request")
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := s.data.authenticate(req.Email, req.Password)
		if err != nil {
			s.logger.Info().Str("email", req.Email).Msg("rejected login")
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		token, ttl, err := s.tokens.issue(user.ID, user.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		resp := tokenResponse{Token: token, ExpiresIn: int(ttl.Seconds())}
		if !s.omitLoginProfile {
			resp.User = &tokenstore.UserProfile{ID: user.ID, Email: user.Email, FirstName: user.FirstName, LastName: user.LastName}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// RefreshHandler exchanges a current or recently expired token for a new one. The old
// token is revoked.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.refreshFails() {
			writeError(w, http.StatusUnauthorized, "refresh disabled")
			return
		}
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		claims, err := s.tokens.verifyForRefresh(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if _, err := s.data.getUser(claims.UID); err != nil {
			writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}

		token, ttl, err := s.tokens.issue(claims.UID, claims.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.tokens.revoke(claims)
		s.tokens.cleanup()
		writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresIn: int(ttl.Seconds())})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tokens.revoke(claimsFrom(r.Context()))
		s.tokens.cleanup()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		user, err := s.data.getUser(claims.UID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "account no longer exists")
			return
		}
		writeJSON(w, http.StatusOK, tokenstore.UserProfile{ID: user.ID, Email: user.Email, FirstName: user.FirstName, LastName: user.LastName})
	}
}
