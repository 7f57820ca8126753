// Package source resolves dashboard snapshots through an ordered chain of strategies.
package source

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/observability"
	"example.com/timestats/internal/stats"
)

// DefaultsSource names the built-in snapshot that terminates every chain.
const DefaultsSource = "defaults"

// Strategy loads a snapshot from one place.
type Strategy interface {
	Name() string
	Load(ctx context.Context) (stats.Snapshot, error)
}

// Result is the outcome of one acquisition.
type Result struct {
	Snapshot stats.Snapshot
	Source   string
}

// Option configures optional behaviour for the Chain.
type Option func(*Chain)

// WithLogger overrides the logger used to report fallthroughs.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// Chain tries each strategy in order and stops at the first success.
// When all of them fail it returns a copy of the fallback snapshot.
type Chain struct {
	strategies []Strategy
	fallback   stats.Snapshot
	logger     zerolog.Logger
}

// NewChain constructs a Chain. A nil fallback means stats.Defaults().
func NewChain(strategies []Strategy, fallback stats.Snapshot, opts ...Option) *Chain {
	if fallback == nil {
		fallback = stats.Defaults()
	}
	c := &Chain{
		strategies: strategies,
		fallback:   fallback.Clone(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire returns a usable snapshot. It never fails.
func (c *Chain) Acquire(ctx context.Context) stats.Snapshot {
	return c.AcquireResult(ctx).Snapshot
}

// AcquireResult is Acquire plus the name of the source that produced the snapshot.
func (c *Chain) AcquireResult(ctx context.Context) Result {
	for _, strategy := range c.strategies {
		snap, err := strategy.Load(ctx)
		if err == nil {
			observability.RecordAcquisition(strategy.Name())
			c.logger.Debug().Str("source", strategy.Name()).Int("records", len(snap)).Msg("snapshot acquired")
			return Result{Snapshot: snap, Source: strategy.Name()}
		}
		kind := failureKind(err)
		observability.RecordSourceFailure(strategy.Name(), kind)
		c.logger.Warn().Err(err).Str("source", strategy.Name()).Str("kind", kind).Msg("snapshot source failed, falling through")
	}

	observability.RecordAcquisition(DefaultsSource)
	c.logger.Info().Str("source", DefaultsSource).Msg("using built-in snapshot")
	return Result{Snapshot: c.fallback.Clone(), Source: DefaultsSource}
}

func failureKind(err error) string {
	var transportErr *stats.TransportError
	var parseErr *stats.ParseError
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// Config describes the standard remote → static → defaults chain.
type Config struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	Static     fs.FS
	StaticPath string
}

// NewDefaultChain assembles the standard chain. An empty endpoint or nil Static skips that step.
func NewDefaultChain(cfg Config, opts ...Option) *Chain {
	var strategies []Strategy
	if cfg.Endpoint != "" {
		strategies = append(strategies, NewRemoteStrategy(cfg.Endpoint, cfg.Token, cfg.Timeout))
	}
	if cfg.Static != nil {
		strategies = append(strategies, NewStaticStrategy(cfg.Static, cfg.StaticPath))
	}
	return NewChain(strategies, stats.Defaults(), opts...)
}
