package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/telecare/auth-server/auth"
	"github.com/telecare/auth-server/ephemeral"
	ephemeralpostgres "github.com/telecare/auth-server/ephemeral/postgres"
	"github.com/telecare/auth-server/ephemeral/redisrepo"
	fakeephemeralrepo "github.com/telecare/auth-server/ephemeral/repofake"
	"github.com/telecare/auth-server/geo"
	"github.com/telecare/auth-server/google"
	"github.com/telecare/auth-server/identity"
	"github.com/telecare/auth-server/internal/config"
	"github.com/telecare/auth-server/internal/db"
	"github.com/telecare/auth-server/internal/sweeper"
	"github.com/telecare/auth-server/mail"
	"github.com/telecare/auth-server/server"
	"github.com/telecare/auth-server/sessions"
	sessionpostgres "github.com/telecare/auth-server/sessions/postgres"
	fakesessionrepo "github.com/telecare/auth-server/sessions/repofake"
	"github.com/telecare/auth-server/token"
	"github.com/telecare/auth-server/users"
	userpostgres "github.com/telecare/auth-server/users/postgres"
	fakeuserrepo "github.com/telecare/auth-server/users/repofake"
)

// app holds everything main starts and later releases.
type app struct {
	Handler  http.Handler
	sweepers []*sweeper.Sweeper
	closers  []func()
}

func (a *app) StartSweepers(ctx context.Context) {
	for _, s := range a.sweepers {
		go s.Run(ctx)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wire(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}

	var pool *pgxpool.Pool
	var userRepo users.Repo
	var sessionRepo sessions.Repo
	if c.GetDatabaseURL() != "" {
		var err error
		pool, err = db.NewPostgresPool(ctx, c.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		userRepo = userpostgres.NewUserRepo(pool)
		sessionRepo = sessionpostgres.NewSessionRepo(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set, users and sessions are kept in memory")
		userRepo = fakeuserrepo.NewFakeUserRepo()
		sessionRepo = fakesessionrepo.NewFakeSessionRepo()
	}
	a.sweepers = append(a.sweepers, sweeper.New("sessions", sessionRepo, c.GetEphemeralSweepInterval()))

	tokenRepo, err := ephemeralRepo(ctx, c, pool, a)
	if err != nil {
		return nil, err
	}

	enricher := geo.NewEnricher(c)
	if err := enricher.Init(); err != nil {
		return nil, fmt.Errorf("geo.Init: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := enricher.Close(); err != nil {
			log.Warn().Err(err).Msg("geo close")
		}
	})

	minter := token.NewMinter(
		token.NewHMACSigner(c.GetJWTSecret()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)
	sessionManager, err := auth.NewSessionManager(sessionRepo, userRepo, minter, enricher,
		auth.WithMaxSessions(c.GetMaxSessionsPerUser()))
	if err != nil {
		return nil, err
	}
	resolver, err := identity.NewResolver(userRepo)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.Deps{
		Users:    userRepo,
		Resolver: resolver,
		Tokens:   ephemeral.NewStore(tokenRepo, ephemeral.WithTTL(c.GetEphemeralTokenTTL())),
		Sessions: sessionManager,
		Hasher:   users.NewHasher(c.GetBcryptCost()),
		Google:   google.NewOIDCProvider(c),
		Mailer:   newMailer(c),
		Composer: mail.NewComposer(c.GetAppName(), c.GetFrontendURL()),
	})
	if err != nil {
		return nil, err
	}

	a.Handler, err = server.New(c, authService, minter)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func ephemeralRepo(ctx context.Context, c config.Config, pool *pgxpool.Pool, a *app) (ephemeral.Repo, error) {
	switch c.GetEphemeralBackend() {
	case config.BackendRedis:
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, fmt.Errorf("redis.ParseURL: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		// Redis expires keys itself, no sweeper needed.
		return redisrepo.NewTokenRepo(rdb), nil

	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("EPHEMERAL_BACKEND=postgres needs DATABASE_URL")
		}
		repo := ephemeralpostgres.NewTokenRepo(pool)
		a.sweepers = append(a.sweepers, sweeper.New("ephemeral-tokens", repo, c.GetEphemeralSweepInterval()))
		return repo, nil

	default:
		repo := fakeephemeralrepo.NewFakeTokenRepo()
		a.sweepers = append(a.sweepers, sweeper.New("ephemeral-tokens", repo, c.GetEphemeralSweepInterval()))
		return repo, nil
	}
}

func newMailer(c config.Config) mail.Mailer {
	if c.GetSmtpAccount() == "" {
		log.Warn().Msg("SMTP_ACCOUNT not set, emails are logged instead of sent")
		return mail.LogMailer{}
	}
	return mail.NewSMTPMailer(c)
}
