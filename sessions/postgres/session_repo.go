package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/telecare/auth-server/geo"
	"github.com/telecare/auth-server/sessions"
)

var _ sessions.Repo = (*SessionRepo)(nil)

type SessionRepo struct {
	db *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{db: pool}
}

const sessionColumns = `id, user_id, ip, user_agent, device, address, location,
	refresh_token_hash, created_at, expires_at`

func (r *SessionRepo) Create(ctx context.Context, s *sessions.Session) error {
	device, err := json.Marshal(s.Device)
	if err != nil {
		return pkgerrors.Wrap(err, "[SessionRepo.Create] marshal device")
	}
	address, err := marshalNullable(s.Address)
	if err != nil {
		return pkgerrors.Wrap(err, "[SessionRepo.Create] marshal address")
	}
	location, err := marshalNullable(s.Location)
	if err != nil {
		return pkgerrors.Wrap(err, "[SessionRepo.Create] marshal location")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.UserID, s.IP, s.UserAgent, device, address, location,
		s.RefreshTokenHash, s.CreatedAt, s.ExpiresAt)
	return pkgerrors.Wrap(err, "[SessionRepo.Create] insert")
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, sessions.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sessions.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionRepo.Get] scan")
	}
	return s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return sessions.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return pkgerrors.Wrap(err, "[SessionRepo.Delete] delete")
	}
	if tag.RowsAffected() == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[SessionRepo.DeleteAllForUser] delete")
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) DeleteAllButNewest(ctx context.Context, userID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM sessions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )
	`, userID, keep)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[SessionRepo.DeleteAllButNewest] delete")
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionRepo.ListByUser] query")
	}
	defer rows.Close()

	var out []*sessions.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "[SessionRepo.ListByUser] scan")
		}
		out = append(out, s)
	}
	return out, pkgerrors.Wrap(rows.Err(), "[SessionRepo.ListByUser] rows")
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[SessionRepo.DeleteExpired] delete")
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*sessions.Session, error) {
	var (
		s                         sessions.Session
		device, address, location []byte
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.IP, &s.UserAgent, &device, &address, &location,
		&s.RefreshTokenHash, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return nil, err
	}
	if len(device) > 0 {
		if err := json.Unmarshal(device, &s.Device); err != nil {
			return nil, err
		}
	}
	if len(address) > 0 {
		s.Address = &geo.Address{}
		if err := json.Unmarshal(address, s.Address); err != nil {
			return nil, err
		}
	}
	if len(location) > 0 {
		s.Location = &geo.Point{}
		if err := json.Unmarshal(location, s.Location); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// marshalNullable keeps nil values as SQL NULL instead of the JSON literal null.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
