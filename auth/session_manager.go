package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/telecare/auth-server/geo"
	"github.com/telecare/auth-server/internal/utils"
	"github.com/telecare/auth-server/sessions"
	"github.com/telecare/auth-server/token"
	"github.com/telecare/auth-server/users"
)

const DefaultMaxSessions = 5

// Enricher describes the client behind a new session. It must not fail.
type Enricher interface {
	Enrich(ctx context.Context, ip, userAgent string) geo.Enrichment
}

// Credentials are returned to the client once per successful authentication.
type Credentials struct {
	Session      *sessions.Session
	AccessToken  string
	RefreshToken string // plaintext, only its hash is stored
}

// SessionManager owns the session lifecycle: create, refresh and revoke.
type SessionManager struct {
	sessions    sessions.Repo
	users       users.Repo
	minter      *token.Minter
	enricher    Enricher
	maxSessions int
	nowFunc     func() time.Time
}

type SessionManagerOption func(*SessionManager)

// WithMaxSessions sets how many sessions a user keeps.
func WithMaxSessions(n int) SessionManagerOption {
	return func(m *SessionManager) {
		m.maxSessions = n
	}
}

// WithSessionNowTime sets the now time function (primarily for testing)
func WithSessionNowTime(now func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.nowFunc = now
	}
}

func NewSessionManager(
	sessionRepo sessions.Repo,
	userRepo users.Repo,
	minter *token.Minter,
	enricher Enricher,
	options ...SessionManagerOption,
) (*SessionManager, error) {
	if sessionRepo == nil {
		return nil, errors.New("[NewSessionManager] Sessions repo is required")
	}
	if userRepo == nil {
		return nil, errors.New("[NewSessionManager] Users repo is required")
	}
	if minter == nil {
		return nil, errors.New("[NewSessionManager] minter is required")
	}
	if enricher == nil {
		return nil, errors.New("[NewSessionManager] enricher is required")
	}

	m := &SessionManager{
		sessions:    sessionRepo,
		users:       userRepo,
		minter:      minter,
		enricher:    enricher,
		maxSessions: DefaultMaxSessions,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.maxSessions < 1 {
		m.maxSessions = DefaultMaxSessions
	}
	return m, nil
}

// CreateSession records a new session for user and mints its tokens. Older
// sessions beyond the cap are evicted first, so at most maxSessions remain.
func (m *SessionManager) CreateSession(ctx context.Context, user *users.User, ip, userAgent string) (*Credentials, error) {
	enrichment := m.enricher.Enrich(ctx, ip, userAgent)

	evicted, err := m.sessions.DeleteAllButNewest(ctx, user.ID, m.maxSessions-1)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.CreateSession] evict")
	}
	if evicted > 0 {
		log.Debug().Str("userId", user.ID).Int64("evicted", evicted).Msg("evicted old sessions")
	}

	now := m.nowFunc()
	session := &sessions.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IP:        ip,
		UserAgent: userAgent,
		Device:    enrichment.Device,
		Address:   enrichment.Address,
		Location:  enrichment.Address.Point(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.minter.RefreshTokenExpiry()),
	}

	refreshToken, err := m.minter.MintRefresh(user.ID, session.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.CreateSession] MintRefresh")
	}
	session.RefreshTokenHash = token.HashRefreshToken(refreshToken)

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[SessionManager.CreateSession] Create")
	}
	log.Debug().
		Str("userId", user.ID).
		Str("sessionId", session.ID).
		Str("browser", utils.Value(session.Device.Browser)).
		Str("deviceType", utils.Value(session.Device.Type)).
		Msg("session created")

	accessToken, err := m.minter.MintAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.CreateSession] MintAccess")
	}

	return &Credentials{
		Session:      session,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Authenticate returns the live session a refresh token belongs to. A token
// whose session was revoked or evicted fails even though its signature holds.
func (m *SessionManager) Authenticate(ctx context.Context, sessionID, refreshToken string) (*sessions.Session, error) {
	session, err := m.sessions.Get(ctx, sessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionManager.Authenticate] Get")
	}

	if !token.RefreshTokenHashEqual(refreshToken, session.RefreshTokenHash) {
		return nil, ErrRefreshTokenInvalid
	}
	if session.Expired(m.nowFunc()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Refresh mints a new access token for a live session. The refresh token
// itself is not rotated and stays valid until logout or expiry.
func (m *SessionManager) Refresh(ctx context.Context, sessionID, refreshToken string) (string, error) {
	session, err := m.Authenticate(ctx, sessionID, refreshToken)
	if err != nil {
		return "", err
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if errors.Is(err, users.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[SessionManager.Refresh] GetByID")
	}

	accessToken, err := m.minter.MintAccess(user.ID, string(user.Role))
	return accessToken, errors.Wrap(err, "[SessionManager.Refresh] MintAccess")
}

// Revoke deletes one session. A session that is already gone is not an error.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	err := m.sessions.Delete(ctx, sessionID)
	if err == nil || errors.Is(err, sessions.ErrNotFound) {
		return nil
	}
	return errors.Wrap(err, "[SessionManager.Revoke]")
}

func (m *SessionManager) RevokeAll(ctx context.Context, userID string) error {
	n, err := m.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "[SessionManager.RevokeAll]")
	}
	log.Debug().Str("userId", userID).Int64("revoked", n).Msg("revoked all sessions")
	return nil
}

// ListSessions returns the user's sessions, newest first.
func (m *SessionManager) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	list, err := m.sessions.ListByUser(ctx, userID)
	return list, errors.Wrap(err, "[SessionManager.ListSessions]")
}
