package auth

import apperrors "github.com/telecare/auth-server/internal/errors"

var (
	ErrUserNotFound        = apperrors.NotFound("user not found")
	ErrSessionNotFound     = apperrors.NotFound("session not found")
	ErrEmailNotVerified    = apperrors.Forbidden("email not verified")
	ErrNoPasswordSet       = apperrors.Forbidden("no password set, use magic link or social login")
	ErrIncorrectPassword   = apperrors.Forbidden("incorrect password")
	ErrRoleMismatch        = apperrors.Forbidden("role mismatch")
	ErrRefreshTokenInvalid = apperrors.Forbidden("invalid refresh token")
	ErrSessionExpired      = apperrors.Forbidden("session expired")
	ErrGoogleEmail         = apperrors.Forbidden("google account email is not verified")
	ErrAlreadyRegistered   = apperrors.BadRequest("an account with this email already exists, please log in")
	ErrRoleRequired        = apperrors.BadRequest("role is required for new accounts")
	ErrInvalidState        = apperrors.BadRequest("invalid state")
)
