package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/telecare/auth-server/ephemeral"
	"github.com/telecare/auth-server/ephemeral/redisrepo"
	apperrors "github.com/telecare/auth-server/internal/errors"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// TestTokenRepo_RoundTrip tests insert, get and single-use delete
func TestTokenRepo_RoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	repo := redisrepo.NewTokenRepo(rdb)
	ctx := context.Background()

	tok := &ephemeral.Token{
		Token:     "abc",
		Email:     "a@x.com",
		Type:      ephemeral.TypeEmailVerification,
		Payload:   ephemeral.Payload{"role": "doctor"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Insert(ctx, tok))
	require.Error(t, repo.Insert(ctx, tok), "duplicate tokens are rejected")

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "doctor", got.Payload["role"])
	require.Equal(t, ephemeral.TypeEmailVerification, got.Type)

	require.NoError(t, repo.Delete(ctx, "abc"))
	require.ErrorIs(t, repo.Delete(ctx, "abc"), ephemeral.ErrNotFound)
	_, err = repo.Get(ctx, "abc")
	require.ErrorIs(t, err, ephemeral.ErrNotFound)
}

// TestTokenRepo_TTL tests that Redis drops expired tokens on its own
func TestTokenRepo_TTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := redisrepo.NewTokenRepo(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &ephemeral.Token{
		Token:     "ttl",
		Type:      ephemeral.TypeMagicLink,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}))
	require.True(t, mr.Exists("ephemeral:ttl"))
	require.Greater(t, mr.TTL("ephemeral:ttl"), 9*time.Minute)

	mr.FastForward(11 * time.Minute)
	_, err := repo.Get(ctx, "ttl")
	require.ErrorIs(t, err, ephemeral.ErrNotFound)
}

// TestStore_WithRedis tests the store flow end to end on the Redis backend
func TestStore_WithRedis(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := ephemeral.NewStore(redisrepo.NewTokenRepo(rdb))
	ctx := context.Background()

	tok, err := store.Issue(ctx, "a@x.com", ephemeral.TypePasswordReset, nil)
	require.NoError(t, err)

	_, err = store.Find(ctx, tok.Token, ephemeral.TypePasswordReset)
	require.NoError(t, err)
	require.NoError(t, store.Consume(ctx, tok.Token))

	err = store.Consume(ctx, tok.Token)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}
