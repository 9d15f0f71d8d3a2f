// Package identity converges every authentication strategy onto one user record.
package identity

import (
	"context"

	"github.com/pkg/errors"
	apperrors "github.com/telecare/auth-server/internal/errors"
	"github.com/telecare/auth-server/users"
)

type Resolver struct {
	users users.Repo
}

func NewResolver(repo users.Repo) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("[NewResolver] Users repo is required")
	}
	return &Resolver{users: repo}, nil
}

// Resolve returns the user behind a verified identity, creating it when the
// strategy allows. Password logins only ever find existing users.
func (r *Resolver) Resolve(ctx context.Context, vi VerifiedIdentity) (*users.User, error) {
	if vi.Strategy == StrategyPassword {
		u, err := r.users.GetByEmail(ctx, users.NormalizeEmail(vi.Email))
		if errors.Is(err, users.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return u, errors.Wrap(err, "[Resolver.Resolve] GetByEmail")
	}
	return r.ResolveOrCreate(ctx, vi.Email, vi.Role, vi.Attributes)
}

// ResolveOrCreate finds the user by email and merges attrs onto it, or creates
// it with role. Safe to call concurrently for the same new email.
func (r *Resolver) ResolveOrCreate(ctx context.Context, email string, role users.Role, attrs Attributes) (*users.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.BadRequest("email is required")
	}

	existing, err := r.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return r.merge(ctx, existing, attrs)
	case !errors.Is(err, users.ErrNotFound):
		return nil, errors.Wrap(err, "[Resolver.ResolveOrCreate] GetByEmail")
	}

	if role == "" {
		return nil, apperrors.BadRequest("role is required for new accounts")
	}
	if !role.Valid() {
		return nil, apperrors.BadRequest("unknown role %q", role)
	}

	u := &users.User{Email: email, Role: role}
	applyAttributes(u, attrs)
	return r.insertOrAdopt(ctx, u, attrs)
}

// insertOrAdopt is optimistic insert: a unique-email conflict means another
// request created the user first, so its record is re-read and used instead.
func (r *Resolver) insertOrAdopt(ctx context.Context, u *users.User, attrs Attributes) (*users.User, error) {
	err := r.users.Create(ctx, u)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrDuplicateEmail) {
		return nil, errors.Wrap(err, "[Resolver.insertOrAdopt] Create")
	}

	winner, err := r.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, errors.Wrap(err, "[Resolver.insertOrAdopt] refetch")
	}
	return r.merge(ctx, winner, attrs)
}

func (r *Resolver) merge(ctx context.Context, u *users.User, attrs Attributes) (*users.User, error) {
	if !applyAttributes(u, attrs) {
		return u, nil
	}
	if err := r.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "[Resolver.merge] Update")
	}
	return u, nil
}

// applyAttributes reports whether u changed.
func applyAttributes(u *users.User, attrs Attributes) bool {
	changed := false
	if attrs.EmailVerified && !u.IsEmailVerified {
		u.IsEmailVerified = true
		changed = true
	}
	if attrs.PasswordHash != "" && attrs.PasswordHash != u.PasswordHash {
		u.PasswordHash = attrs.PasswordHash
		u.IsPasswordSet = true
		changed = true
	}
	if attrs.Name != "" && u.Name == "" {
		u.Name = attrs.Name
		changed = true
	}
	return changed
}
