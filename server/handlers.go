package server

import (
	"net/http"

	"github.com/telecare/auth-server/auth"
	apperrors "github.com/telecare/auth-server/internal/errors"
	"github.com/telecare/auth-server/sessions"
	"github.com/telecare/auth-server/users"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// sessionResponse is returned by every flow that signs the user in.
type sessionResponse struct {
	Success     bool              `json:"success"`
	AccessToken string            `json:"accessToken"`
	Session     *sessions.Session `json:"session"`
	User        *users.User       `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=patient doctor admin"`
	Password string `json:"password" validate:"required,max=72"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=patient doctor admin"`
}

type googleURLRequest struct {
	State string `json:"state"`
}

type googleCallbackRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state"`
}

type googleTokenCallbackRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	State   string `json:"state"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.auth.Register(r.Context(), req.Email, users.Role(req.Role), req.Password); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "verification email sent"})
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.VerifyEmail(r.Context(), req.Token, s.clientInfo(r))
		s.writeSession(w, r, res, err)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.Login(r.Context(), req.Email, req.Password, s.clientInfo(r))
		s.writeSession(w, r, res, err)
	}
}

func (s *Server) MagicLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req magicLinkRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.auth.RequestMagicLink(r.Context(), req.Email, users.Role(req.Role)); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "magic link sent"})
	}
}

func (s *Server) MagicLinkVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.VerifyMagicLink(r.Context(), req.Token, s.clientInfo(r))
		s.writeSession(w, r, res, err)
	}
}

func (s *Server) GoogleURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleURLRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool   `json:"success"`
			URL     string `json:"url"`
		}{Success: true, URL: s.auth.GoogleAuthURL(req.State)})
	}
}

func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleCallbackRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.GoogleCallback(r.Context(), req.Code, req.State, s.clientInfo(r))
		s.writeSession(w, r, res, err)
	}
}

func (s *Server) GoogleTokenCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req googleTokenCallbackRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := s.auth.GoogleIDTokenCallback(r.Context(), req.IDToken, req.State, s.clientInfo(r))
		s.writeSession(w, r, res, err)
	}
}

func (s *Server) PasswordResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordResetRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password reset email sent"})
	}
}

func (s *Server) PasswordResetConfirmHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordResetConfirmRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.auth.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password updated"})
	}
}

// LogoutHandler revokes the session behind the refresh token. Logging out
// twice still succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ra := refreshFrom(r.Context())
		if err := s.auth.Logout(r.Context(), ra.Claims.SessionID); err != nil {
			writeError(w, r, err)
			return
		}
		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out"})
	}
}

func (s *Server) LogoutAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ra := refreshFrom(r.Context())
		if err := s.auth.LogoutAll(r.Context(), ra.Claims.SessionID, ra.Raw); err != nil {
			writeError(w, r, err)
			return
		}
		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out of all sessions"})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ra := refreshFrom(r.Context())
		accessToken, err := s.auth.Refresh(r.Context(), ra.Claims.SessionID, ra.Raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success     bool   `json:"success"`
			AccessToken string `json:"accessToken"`
		}{Success: true, AccessToken: accessToken})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := accessClaimsFrom(r.Context())
		user, err := s.auth.Me(r.Context(), claims.Subject, claims.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool        `json:"success"`
			User    *users.User `json:"user"`
		}{Success: true, User: user})
	}
}

func (s *Server) SessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := accessClaimsFrom(r.Context())
		list, err := s.auth.ListSessions(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success  bool                `json:"success"`
			Sessions []*sessions.Session `json:"sessions"`
		}{Success: true, Sessions: list})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
		}{Success: true})
	}
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.NotFound("route not found"))
	}
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, res *auth.AuthResult, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		Success:     true,
		AccessToken: res.AccessToken,
		Session:     res.Session,
		User:        res.User,
	})
}
