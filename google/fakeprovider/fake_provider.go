package fakeprovider

import (
	"context"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/telecare/auth-server/google"
)

// FakeProvider answers from registered codes and ID tokens.
type FakeProvider struct {
	lock     sync.RWMutex
	codes    map[string]google.Claims
	idTokens map[string]google.Claims
}

var _ google.Provider = (*FakeProvider)(nil)

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		codes:    make(map[string]google.Claims),
		idTokens: make(map[string]google.Claims),
	}
}

func (f *FakeProvider) AddCode(code string, claims google.Claims) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.codes[code] = claims
}

func (f *FakeProvider) AddIDToken(rawIDToken string, claims google.Claims) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.idTokens[rawIDToken] = claims
}

func (f *FakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *FakeProvider) ExchangeCode(_ context.Context, code string) (*google.Claims, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	c, ok := f.codes[code]
	if !ok {
		return nil, errors.Wrap(google.ErrVerification, "unknown code")
	}
	return &c, nil
}

func (f *FakeProvider) VerifyIDToken(_ context.Context, rawIDToken string) (*google.Claims, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	c, ok := f.idTokens[rawIDToken]
	if !ok {
		return nil, errors.Wrap(google.ErrVerification, "unknown id token")
	}
	return &c, nil
}
