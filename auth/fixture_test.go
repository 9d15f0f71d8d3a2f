package auth_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/telecare/auth-server/auth"
	"github.com/telecare/auth-server/ephemeral"
	fakeephemeralrepo "github.com/telecare/auth-server/ephemeral/repofake"
	"github.com/telecare/auth-server/geo"
	"github.com/telecare/auth-server/google/fakeprovider"
	"github.com/telecare/auth-server/identity"
	"github.com/telecare/auth-server/mail"
	"github.com/telecare/auth-server/mail/fakemailer"
	fakesessionrepo "github.com/telecare/auth-server/sessions/repofake"
	"github.com/telecare/auth-server/token"
	"github.com/telecare/auth-server/users"
	fakeuserrepo "github.com/telecare/auth-server/users/repofake"
)

const (
	secretStr        = "1234"
	testUserEmail    = "a@x.com"
	testUserPassword = "pw"
	testIP           = "8.8.8.8"
	testUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var testClient = auth.Client{IP: testIP, UserAgent: testUserAgent}

type clock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type geoConfig struct{}

func (geoConfig) GetGeoLookupURL() string            { return "" }
func (geoConfig) GetGeoLookupTimeout() time.Duration { return time.Second }
func (geoConfig) GetGeoDBPath() string               { return "" }

// brokenLookup stands in for a geo API that always blows up
type brokenLookup struct{}

func (brokenLookup) Lookup(context.Context, net.IP) (*geo.Address, error) {
	panic("geo service exploded")
}

// testFixture holds all test dependencies
type testFixture struct {
	clock       *clock
	userRepo    *fakeuserrepo.FakeUserRepo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	tokenRepo   *fakeephemeralrepo.FakeTokenRepo
	minter      *token.Minter
	hasher      *users.Hasher
	google      *fakeprovider.FakeProvider
	mailer      *fakemailer.FakeMailer
	sessions    *auth.SessionManager
	service     *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	c := &clock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	ur := fakeuserrepo.NewFakeUserRepo()
	sr := fakesessionrepo.NewFakeSessionRepo()
	tr := fakeephemeralrepo.NewFakeTokenRepo()

	minter := token.NewMinter(token.NewHMACSigner(secretStr), token.WithNowTime(c.Now))
	enricher := geo.NewEnricher(geoConfig{}, geo.WithRemoteLookup(brokenLookup{}))

	sm, err := auth.NewSessionManager(sr, ur, minter, enricher, auth.WithSessionNowTime(c.Now))
	require.NoError(t, err)

	resolver, err := identity.NewResolver(ur)
	require.NoError(t, err)

	f := &testFixture{
		clock:       c,
		userRepo:    ur,
		sessionRepo: sr,
		tokenRepo:   tr,
		minter:      minter,
		hasher:      users.NewHasher(4),
		google:      fakeprovider.NewFakeProvider(),
		mailer:      fakemailer.NewFakeMailer(),
		sessions:    sm,
	}

	f.service, err = auth.NewService(auth.Deps{
		Users:    ur,
		Resolver: resolver,
		Tokens:   ephemeral.NewStore(tr, ephemeral.WithNowTime(c.Now)),
		Sessions: sm,
		Hasher:   f.hasher,
		Google:   f.google,
		Mailer:   f.mailer,
		Composer: mail.NewComposer("Telecare", "https://app.example.com"),
	})
	require.NoError(t, err)
	return f
}

type testUser struct {
	Email         string
	Password      string
	Role          users.Role
	EmailVerified bool
}

// createTestUser stores a user; an empty password leaves IsPasswordSet false
func (f *testFixture) createTestUser(t *testing.T, tu testUser) *users.User {
	t.Helper()

	u := &users.User{
		Email:           tu.Email,
		Role:            tu.Role,
		IsEmailVerified: tu.EmailVerified,
	}
	if u.Role == "" {
		u.Role = users.RolePatient
	}
	if tu.Password != "" {
		hash, err := f.hasher.Hash(tu.Password)
		require.NoError(t, err)
		u.PasswordHash = hash
		u.IsPasswordSet = true
	}
	require.NoError(t, f.userRepo.Create(context.Background(), u))
	return u
}

func defaultTestUser() testUser {
	return testUser{
		Email:         testUserEmail,
		Password:      testUserPassword,
		Role:          users.RolePatient,
		EmailVerified: true,
	}
}

// mailedToken plays the part of the user's mailbox
func (f *testFixture) mailedToken(t *testing.T, email string, tokenType ephemeral.Type) string {
	t.Helper()
	tok, ok := f.tokenRepo.ByEmail(email, tokenType)
	require.True(t, ok, "no %s token for %s", tokenType, email)

	msg, ok := f.mailer.Last()
	require.True(t, ok)
	require.Equal(t, email, msg.To)
	require.Contains(t, msg.Body, tok.Token)
	return tok.Token
}

type stubEnricher struct{}

func (stubEnricher) Enrich(context.Context, string, string) geo.Enrichment {
	return geo.Enrichment{}
}
