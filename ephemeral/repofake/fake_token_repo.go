package fakeephemeralrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/telecare/auth-server/ephemeral"
)

var _ ephemeral.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens map[string]ephemeral.Token
	lock   sync.RWMutex
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens: make(map[string]ephemeral.Token),
	}
}

func (tr *FakeTokenRepo) Insert(_ context.Context, token *ephemeral.Token) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[token.Token]; ok {
		return errors.New("duplicate token")
	}
	tr.tokens[token.Token] = *token
	return nil
}

func (tr *FakeTokenRepo) Get(_ context.Context, token string) (*ephemeral.Token, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	t, ok := tr.tokens[token]
	if !ok {
		return nil, ephemeral.ErrNotFound
	}
	return &t, nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[token]; !ok {
		return ephemeral.ErrNotFound
	}
	delete(tr.tokens, token)
	return nil
}

func (tr *FakeTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var n int64
	for k, t := range tr.tokens {
		if t.Expired(now) {
			delete(tr.tokens, k)
			n++
		}
	}
	return n, nil
}

// ByEmail returns the newest token issued to email for a flow, for tests that
// play the part of the mailbox.
func (tr *FakeTokenRepo) ByEmail(email string, tokenType ephemeral.Type) (*ephemeral.Token, bool) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	var found *ephemeral.Token
	for _, t := range tr.tokens {
		if t.Email != email || t.Type != tokenType {
			continue
		}
		if found == nil || t.CreatedAt.After(found.CreatedAt) {
			c := t
			found = &c
		}
	}
	return found, found != nil
}
