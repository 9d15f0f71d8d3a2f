package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims authorise API calls for one user.
type AccessClaims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims bind a refresh token to a single session.
type RefreshClaims struct {
	SessionID string `json:"sessionId"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Minter issues and verifies access and refresh tokens.
type Minter struct {
	signer             Signer
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type MinterOption func(*Minter)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) MinterOption {
	return func(m *Minter) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

// WithNowTime sets the clock used for iat/exp and for verification (primarily for testing)
func WithNowTime(now func() time.Time) MinterOption {
	return func(m *Minter) {
		m.nowFunc = now
	}
}

func NewMinter(signer Signer, options ...MinterOption) *Minter {
	m := &Minter{
		signer:             signer,
		accessTokenExpiry:  15 * time.Minute,
		refreshTokenExpiry: 7 * 24 * time.Hour,
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Minter) RefreshTokenExpiry() time.Duration {
	return m.refreshTokenExpiry
}

// MintAccess issues a short-lived token encoding {sub: userID, role}.
func (m *Minter) MintAccess(userID, role string) (string, error) {
	now := m.nowFunc()
	claims := AccessClaims{
		Role:      role,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Minter.MintAccess] sign")
	}
	return signed, nil
}

// MintRefresh issues a long-lived token encoding {sub: userID, sessionId}.
func (m *Minter) MintRefresh(userID, sessionID string) (string, error) {
	now := m.nowFunc()
	claims := RefreshClaims{
		SessionID: sessionID,
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTokenExpiry)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Minter.MintRefresh] sign")
	}
	return signed, nil
}

// VerifyAccess checks signature and expiry. Failures are ErrTokenExpired or ErrTokenInvalid.
func (m *Minter) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeAccess || claims.Subject == "" || claims.Role == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry. Failures are ErrTokenExpired or ErrTokenInvalid.
func (m *Minter) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(raw, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeRefresh || claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Minter) parse(raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
