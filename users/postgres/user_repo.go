package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/telecare/auth-server/internal/db"
	"github.com/telecare/auth-server/users"
)

var _ users.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: pool}
}

const userColumns = `id, email, name, role, password_hash, is_email_verified, is_password_set,
	is_profile_completed, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.Name, string(user.Role), user.PasswordHash, user.IsEmailVerified,
		user.IsPasswordSet, user.IsProfileCompleted, user.CreatedAt, user.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return users.ErrDuplicateEmail
	}
	return pkgerrors.Wrap(err, "[UserRepo.Create] insert")
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	user.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2, role = $3, password_hash = $4, is_email_verified = $5,
			is_password_set = $6, is_profile_completed = $7, updated_at = $8
		WHERE id = $1
	`, user.ID, user.Name, string(user.Role), user.PasswordHash, user.IsEmailVerified,
		user.IsPasswordSet, user.IsProfileCompleted, user.UpdatedAt)
	if err != nil {
		return pkgerrors.Wrap(err, "[UserRepo.Update] update")
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, "[UserRepo.GetByEmail]")
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, users.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "[UserRepo.GetByID]")
}

func scanUser(row pgx.Row, op string) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.IsEmailVerified,
		&u.IsPasswordSet, &u.IsProfileCompleted, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, op+" scan")
	}
	u.Role = users.Role(role)
	return &u, nil
}
