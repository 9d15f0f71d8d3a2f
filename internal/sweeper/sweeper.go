// Package sweeper periodically deletes expired rows from a store.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Target is a store that can drop rows expired at now.
type Target interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	name     string
	target   Target
	interval time.Duration
	nowFunc  func() time.Time
}

type Option func(*Sweeper)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.nowFunc = now
	}
}

func New(name string, target Target, interval time.Duration, options ...Option) *Sweeper {
	s := &Sweeper{
		name:     name,
		target:   target,
		interval: interval,
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	return s
}

// SweepOnce deletes everything expired at the current time.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.target.DeleteExpired(ctx, s.nowFunc())
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Error().Err(err).Str("sweeper", s.name).Msg("sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Str("sweeper", s.name).Msg("swept expired rows")
			}
		}
	}
}
