package ephemeral_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/telecare/auth-server/ephemeral"
	fakeephemeralrepo "github.com/telecare/auth-server/ephemeral/repofake"
	apperrors "github.com/telecare/auth-server/internal/errors"
)

const testEmail = "a@x.com"

type clock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupStore(t *testing.T) (*ephemeral.Store, *fakeephemeralrepo.FakeTokenRepo, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := fakeephemeralrepo.NewFakeTokenRepo()
	return ephemeral.NewStore(repo, ephemeral.WithNowTime(c.Now)), repo, c
}

// TestIssue tests token generation and default expiry
func TestIssue(t *testing.T) {
	store, _, c := setupStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, testEmail, ephemeral.TypeEmailVerification, ephemeral.Payload{"role": "patient"})
	require.NoError(t, err)
	require.Len(t, tok.Token, 64)
	require.Equal(t, c.Now().Add(10*time.Minute), tok.ExpiresAt)

	other, err := store.Issue(ctx, testEmail, ephemeral.TypeEmailVerification, nil)
	require.NoError(t, err)
	require.NotEqual(t, tok.Token, other.Token)

	found, err := store.Find(ctx, tok.Token, ephemeral.TypeEmailVerification)
	require.NoError(t, err)
	require.Equal(t, "patient", found.Payload["role"])
}

// TestFind_Rejections tests that every unusable token is the same BadRequest
func TestFind_Rejections(t *testing.T) {
	store, _, c := setupStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, testEmail, ephemeral.TypeMagicLink, nil)
	require.NoError(t, err)

	t.Run("unknown", func(t *testing.T) {
		_, err := store.Find(ctx, "nope", ephemeral.TypeMagicLink)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := store.Find(ctx, "", ephemeral.TypeMagicLink)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := store.Find(ctx, tok.Token, ephemeral.TypePasswordReset)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})

	t.Run("expired but not swept", func(t *testing.T) {
		c.Advance(10 * time.Minute)
		_, err := store.Find(ctx, tok.Token, ephemeral.TypeMagicLink)
		require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	})
}

// TestConsume_SingleUse tests that a second consume fails
func TestConsume_SingleUse(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, testEmail, ephemeral.TypePasswordReset, nil)
	require.NoError(t, err)

	require.NoError(t, store.Consume(ctx, tok.Token))

	err = store.Consume(ctx, tok.Token)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	_, err = store.Find(ctx, tok.Token, ephemeral.TypePasswordReset)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

// TestConsume_ConcurrentWinner tests that exactly one of many racing consumers wins
func TestConsume_ConcurrentWinner(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, testEmail, ephemeral.TypeMagicLink, nil)
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Consume(ctx, tok.Token) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
}

// TestDeleteExpired tests the sweep target on the in-memory repo
func TestDeleteExpired(t *testing.T) {
	store, repo, c := setupStore(t)
	ctx := context.Background()

	_, err := store.IssueWithTTL(ctx, testEmail, ephemeral.TypeMagicLink, nil, time.Minute)
	require.NoError(t, err)
	live, err := store.Issue(ctx, testEmail, ephemeral.TypeMagicLink, nil)
	require.NoError(t, err)

	n, err := repo.DeleteExpired(ctx, c.Now().Add(2*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = store.Find(ctx, live.Token, ephemeral.TypeMagicLink)
	require.NoError(t, err)
}
