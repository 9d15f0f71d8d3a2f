package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/telecare/auth-server/internal/errors"
	"github.com/telecare/auth-server/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccessClaims stores the verified access token claims
	ContextKeyAccessClaims ContextKey = "access_claims"
	// ContextKeyRefresh stores the verified refresh token
	ContextKeyRefresh ContextKey = "refresh"
)

// refreshAuth is what RequireRefreshToken hands to the handler.
type refreshAuth struct {
	Claims *token.RefreshClaims
	Raw    string
}

// RequireAccessToken validates the Bearer access token.
func (s *Server) RequireAccessToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, r, apperrors.Unauthorized("missing access token"))
				return
			}
			claims, err := s.minter.VerifyAccess(raw)
			if err != nil {
				writeError(w, r, tokenError(err))
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyAccessClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRefreshToken validates the refresh token from the cookie, or the
// Bearer header for clients without cookies.
func (s *Server) RequireRefreshToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if cookie, err := r.Cookie(RefreshCookieName); err == nil {
				raw = cookie.Value
			}
			if raw == "" {
				raw = bearerToken(r)
			}
			if raw == "" {
				writeError(w, r, apperrors.Unauthorized("missing refresh token"))
				return
			}
			claims, err := s.minter.VerifyRefresh(raw)
			if err != nil {
				writeError(w, r, tokenError(err))
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyRefresh, &refreshAuth{Claims: claims, Raw: raw})
			next(w, r.WithContext(ctx))
		}
	}
}

func accessClaimsFrom(ctx context.Context) *token.AccessClaims {
	claims, _ := ctx.Value(ContextKeyAccessClaims).(*token.AccessClaims)
	return claims
}

func refreshFrom(ctx context.Context) *refreshAuth {
	ra, _ := ctx.Value(ContextKeyRefresh).(*refreshAuth)
	return ra
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// tokenError keeps expired and invalid signed tokens apart.
func tokenError(err error) error {
	if errors.Is(err, token.ErrTokenExpired) {
		return apperrors.Unauthorized("token expired")
	}
	return apperrors.Forbidden("invalid token")
}
