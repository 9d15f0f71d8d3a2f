package ephemeral

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	apperrors "github.com/telecare/auth-server/internal/errors"
)

const (
	DefaultTTL  = 10 * time.Minute
	tokenLength = 32 // 32 bytes = 256 bits
)

const invalidTokenMessage = "invalid or expired token"

type Store struct {
	repo    Repo
	ttl     time.Duration
	nowFunc func() time.Time
}

type StoreOption func(*Store)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(repo Repo, options ...StoreOption) *Store {
	s := &Store{
		repo:    repo,
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	return s
}

// Issue creates a token that expires after the store TTL.
func (s *Store) Issue(ctx context.Context, email string, tokenType Type, payload Payload) (*Token, error) {
	return s.IssueWithTTL(ctx, email, tokenType, payload, s.ttl)
}

func (s *Store) IssueWithTTL(ctx context.Context, email string, tokenType Type, payload Payload, ttl time.Duration) (*Token, error) {
	value, err := generateToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Issue] generate")
	}

	now := s.nowFunc()
	t := &Token{
		Token:     value,
		Email:     email,
		Type:      tokenType,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, errors.Wrap(err, "[Store.Issue] insert")
	}
	return t, nil
}

// Find returns a live token of the given type. Unknown, mistyped and expired
// tokens are all the same BadRequest.
func (s *Store) Find(ctx context.Context, value string, tokenType Type) (*Token, error) {
	if value == "" {
		return nil, apperrors.BadRequest(invalidTokenMessage)
	}
	t, err := s.repo.Get(ctx, value)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.BadRequest(invalidTokenMessage)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Find] get")
	}
	if t.Type != tokenType || t.Expired(s.nowFunc()) {
		return nil, apperrors.BadRequest(invalidTokenMessage)
	}
	return t, nil
}

// Consume deletes the token. A token already consumed is a BadRequest.
func (s *Store) Consume(ctx context.Context, value string) error {
	err := s.repo.Delete(ctx, value)
	if errors.Is(err, ErrNotFound) {
		return apperrors.BadRequest(invalidTokenMessage)
	}
	return errors.Wrap(err, "[Store.Consume] delete")
}

func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
