// Package dashboard wires the data source, view model, scheduler and input
// controller into one self-contained dashboard instance.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/input"
	"example.com/timestats/internal/observability"
	"example.com/timestats/internal/scheduler"
	"example.com/timestats/internal/source"
	"example.com/timestats/internal/stats"
	"example.com/timestats/internal/view"
)

// Acquirer resolves a snapshot. *source.Chain satisfies it.
type Acquirer interface {
	AcquireResult(ctx context.Context) source.Result
}

// Option configures optional behaviour for the Dashboard.
type Option func(*Dashboard)

// WithLogger overrides the dashboard logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

// WithRefreshInterval overrides the scheduled refresh period. Sub-second parts are
// dropped and anything below one second runs every second.
func WithRefreshInterval(interval time.Duration) Option {
	return func(d *Dashboard) {
		d.interval = interval
	}
}

// Dashboard is one independent dashboard instance.
type Dashboard struct {
	src      Acquirer
	model    *view.ViewModel
	input    *input.Controller
	sched    *scheduler.Scheduler
	logger   zerolog.Logger
	interval time.Duration

	mu          sync.RWMutex
	subs        map[int]func(view.RenderedView)
	nextSub     int
	lastSource  string
	lastRefresh time.Time
}

// New constructs an idle dashboard backed by src.
func New(src Acquirer, opts ...Option) *Dashboard {
	d := &Dashboard{
		src:      src,
		model:    view.NewViewModel(),
		logger:   zerolog.Nop(),
		interval: scheduler.DefaultRefreshInterval,
		subs:     make(map[int]func(view.RenderedView)),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.input = input.NewController(d.model)
	d.input.OnChange(func(tf stats.Timeframe) {
		d.logger.Debug().Str("timeframe", string(tf)).Msg("timeframe selected")
		d.render()
	})
	d.sched = scheduler.New(d.interval, func(ctx context.Context) {
		d.Refresh(ctx)
	}, scheduler.WithLogger(d.logger))
	return d
}

// Start performs the initial acquisition and arms the periodic refresh.
func (d *Dashboard) Start(ctx context.Context) {
	d.Refresh(ctx)
	d.sched.Start(ctx)
}

// Stop disarms the periodic refresh and any pending debounced work.
func (d *Dashboard) Stop() {
	d.sched.Stop()
}

// Refresh acquires a snapshot, stores it and re-renders.
func (d *Dashboard) Refresh(ctx context.Context) view.RenderedView {
	res := d.src.AcquireResult(ctx)
	d.model.SetSnapshot(res.Snapshot)

	now := time.Now()
	d.mu.Lock()
	d.lastSource = res.Source
	d.lastRefresh = now
	d.mu.Unlock()
	observability.RecordRefresh(now)
	d.logger.Info().Str("source", res.Source).Int("records", len(res.Snapshot)).Msg("snapshot refreshed")

	return d.render()
}

// Select routes a timeframe activation through the input controller.
func (d *Dashboard) Select(a input.Activation) (bool, error) {
	return d.input.Handle(a)
}

// View renders the current state.
func (d *Dashboard) View() view.RenderedView {
	return view.RenderState(d.model.State())
}

// Timeframe returns the selected timeframe.
func (d *Dashboard) Timeframe() stats.Timeframe {
	return d.model.Timeframe()
}

// Indicators returns the selection state of the timeframe controls.
func (d *Dashboard) Indicators() []input.Indicator {
	return d.input.Indicators()
}

// Scheduler exposes the instance scheduler for surface-owned debounced tasks.
func (d *Dashboard) Scheduler() *scheduler.Scheduler {
	return d.sched
}

// LastRefresh reports the source and time of the most recent acquisition.
func (d *Dashboard) LastRefresh() (string, time.Time) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSource, d.lastRefresh
}

// Subscribe registers fn to receive every render. The returned func unregisters it.
func (d *Dashboard) Subscribe(fn func(view.RenderedView)) func() {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

func (d *Dashboard) render() view.RenderedView {
	rv := view.RenderState(d.model.State())
	d.model.ClearDirty()

	for _, issue := range rv.Issues {
		d.logger.Warn().Err(issue).Str("timeframe", string(issue.Timeframe)).Msg("card rendered without data")
	}
	observability.RecordCardIssues(len(rv.Issues))

	d.mu.RLock()
	subs := make([]func(view.RenderedView), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.RUnlock()
	for _, fn := range subs {
		fn(rv)
	}
	return rv
}
