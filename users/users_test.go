package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/telecare/auth-server/users"
	fakeuserrepo "github.com/telecare/auth-server/users/repofake"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "a@x.com"
	testPassword = "pw"
)

// TestHasher tests hashing and comparison round trips
func TestHasher(t *testing.T) {
	h := users.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash(testPassword)
	require.NoError(t, err)
	require.NotEqual(t, testPassword, hash)

	require.True(t, h.Compare(testPassword, hash))
	require.False(t, h.Compare("pw2", hash))
	require.False(t, h.Compare(testPassword, ""))
}

// TestNewHasher_ClampsCost tests that out-of-range costs are clamped
func TestNewHasher_ClampsCost(t *testing.T) {
	hash, err := users.NewHasher(1).Hash(testPassword)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)
}

func TestRole_Valid(t *testing.T) {
	require.True(t, users.RolePatient.Valid())
	require.True(t, users.RoleDoctor.Valid())
	require.True(t, users.RoleAdmin.Valid())
	require.False(t, users.Role("nurse").Valid())
	require.False(t, users.Role("").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "a@x.com", users.NormalizeEmail("  A@X.com "))
}

// TestFakeUserRepo tests the uniqueness and copy semantics the services rely on
func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Email: testEmail, Role: users.RolePatient}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	err := repo.Create(ctx, &users.User{Email: testEmail, Role: users.RoleDoctor})
	require.ErrorIs(t, err, users.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	got.IsEmailVerified = true

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, again.IsEmailVerified, "reads must not alias stored records")

	require.NoError(t, repo.Update(ctx, got))
	again, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, again.IsEmailVerified)

	_, err = repo.GetByEmail(ctx, "missing@x.com")
	require.ErrorIs(t, err, users.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, &users.User{ID: "nope"}), users.ErrNotFound)
}
