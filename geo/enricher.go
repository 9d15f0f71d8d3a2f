// Package geo turns a client IP and user-agent into session metadata.
package geo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/telecare/auth-server/internal/config"
)

// Enricher resolves device and location details. Enrich never fails; missing
// signals leave fields nil.
type Enricher struct {
	remote      Lookup
	local       Lookup
	db          *GeoIPDatabase
	timeout     time.Duration
	parseDevice func(userAgent string) Device
}

type EnricherOption func(*Enricher)

// WithRemoteLookup replaces the remote lookup.
func WithRemoteLookup(l Lookup) EnricherOption {
	return func(e *Enricher) {
		e.remote = l
	}
}

// WithLocalLookup replaces the offline database lookup.
func WithLocalLookup(l Lookup) EnricherOption {
	return func(e *Enricher) {
		e.local = l
		e.db = nil
	}
}

// WithDeviceParser replaces the user-agent parser.
func WithDeviceParser(parse func(userAgent string) Device) EnricherOption {
	return func(e *Enricher) {
		e.parseDevice = parse
	}
}

func WithTimeout(timeout time.Duration) EnricherOption {
	return func(e *Enricher) {
		e.timeout = timeout
	}
}

func NewEnricher(cfg config.GeoConfig, options ...EnricherOption) *Enricher {
	e := &Enricher{timeout: cfg.GetGeoLookupTimeout(), parseDevice: ParseDevice}
	if cfg.GetGeoLookupURL() != "" {
		e.remote = NewIPAPILookup(cfg.GetGeoLookupURL(), e.timeout)
	}
	if cfg.GetGeoDBPath() != "" {
		e.db = NewGeoIPDatabase(cfg.GetGeoDBPath())
		e.local = e.db
	}
	for _, opt := range options {
		opt(e)
	}
	if e.timeout <= 0 {
		e.timeout = 2 * time.Second
	}
	return e
}

// Init opens the offline database. A missing database only disables the fallback.
func (e *Enricher) Init() error {
	if e.db == nil {
		return nil
	}
	if err := e.db.Open(); err != nil {
		log.Warn().Err(err).Msg("geo: offline database unavailable, fallback disabled")
	}
	return nil
}

func (e *Enricher) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Enricher) Enrich(ctx context.Context, ip, userAgent string) (result Enrichment) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("ip", ip).Msg("geo: enrichment panicked")
			result.Address = nil
		}
	}()
	result.Device = e.device(userAgent)
	result.Address = e.resolve(ctx, ip)
	return result
}

// device parses the user-agent on its own so a parser panic keeps the address.
func (e *Enricher) device(userAgent string) (d Device) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("userAgent", userAgent).Msg("geo: user-agent parse panicked")
			d = Device{}
		}
	}()
	if e.parseDevice == nil {
		return ParseDevice(userAgent)
	}
	return e.parseDevice(userAgent)
}

func (e *Enricher) resolve(ctx context.Context, rawIP string) *Address {
	ip := net.ParseIP(strings.TrimSpace(rawIP))
	if ip == nil {
		return nil
	}
	if isLocal(ip) {
		addr := localAddress
		return &addr
	}

	if e.remote != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
		addr, err := e.remote.Lookup(lookupCtx, ip)
		cancel()
		if err == nil && addr != nil {
			return addr
		}
		log.Debug().Err(err).Str("ip", ip.String()).Msg("geo: remote lookup failed, trying offline database")
	}

	if e.local != nil {
		addr, err := e.local.Lookup(ctx, ip)
		if err == nil && addr != nil {
			return addr
		}
		log.Debug().Err(err).Str("ip", ip.String()).Msg("geo: offline lookup missed")
	}
	return nil
}

func isLocal(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
