package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/telecare/auth-server/ephemeral"
)

const defaultPrefix = "ephemeral:"

var _ ephemeral.Repo = (*TokenRepo)(nil)

// TokenRepo keeps tokens in Redis; key TTLs do the sweeping.
type TokenRepo struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewTokenRepo(rdb redis.UniversalClient) *TokenRepo {
	return &TokenRepo{rdb: rdb, prefix: defaultPrefix}
}

func (r *TokenRepo) key(token string) string {
	return r.prefix + token
}

func (r *TokenRepo) Insert(ctx context.Context, t *ephemeral.Token) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenRepo.Insert] marshal")
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	ok, err := r.rdb.SetNX(ctx, r.key(t.Token), raw, ttl).Result()
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenRepo.Insert] setnx")
	}
	if !ok {
		return errors.New("[TokenRepo.Insert] duplicate token")
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*ephemeral.Token, error) {
	raw, err := r.rdb.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ephemeral.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[TokenRepo.Get] get")
	}
	var t ephemeral.Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, pkgerrors.Wrap(err, "[TokenRepo.Get] unmarshal")
	}
	return &t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	n, err := r.rdb.Del(ctx, r.key(token)).Result()
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenRepo.Delete] del")
	}
	if n == 0 {
		return ephemeral.ErrNotFound
	}
	return nil
}
