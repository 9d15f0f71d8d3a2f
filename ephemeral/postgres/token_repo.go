package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/telecare/auth-server/ephemeral"
)

var _ ephemeral.Repo = (*TokenRepo)(nil)

// TokenRepo keeps tokens in Postgres. Expired rows linger until a sweeper
// calls DeleteExpired.
type TokenRepo struct {
	db *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{db: pool}
}

func (r *TokenRepo) Insert(ctx context.Context, t *ephemeral.Token) error {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenRepo.Insert] marshal payload")
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO ephemeral_tokens (token, email, type, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.Token, t.Email, string(t.Type), payload, t.CreatedAt, t.ExpiresAt)
	return pkgerrors.Wrap(err, "[TokenRepo.Insert] insert")
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*ephemeral.Token, error) {
	var (
		t         ephemeral.Token
		tokenType string
		payload   []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT token, email, type, payload, created_at, expires_at
		FROM ephemeral_tokens
		WHERE token = $1
	`, token).Scan(&t.Token, &t.Email, &tokenType, &payload, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ephemeral.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[TokenRepo.Get] scan")
	}
	t.Type = ephemeral.Type(tokenType)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &t.Payload); err != nil {
			return nil, pkgerrors.Wrap(err, "[TokenRepo.Get] unmarshal payload")
		}
	}
	return &t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ephemeral_tokens WHERE token = $1`, token)
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenRepo.Delete] delete")
	}
	if tag.RowsAffected() == 0 {
		return ephemeral.ErrNotFound
	}
	return nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM ephemeral_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[TokenRepo.DeleteExpired] delete")
	}
	return tag.RowsAffected(), nil
}
