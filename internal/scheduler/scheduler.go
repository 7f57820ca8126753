// Package scheduler owns the dashboard's periodic refresh and its debounced tasks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRefreshInterval is the period between scheduled acquisitions.
const DefaultRefreshInterval = 5 * time.Minute

// MinRefreshInterval is the finest period the cron schedule can express.
const MinRefreshInterval = time.Second

const stopTimeout = 5 * time.Second

// State is the lifecycle state of a Scheduler.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Option configures optional behaviour for the Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the scheduler logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler runs task every interval while Active.
type Scheduler struct {
	interval time.Duration
	task     func(context.Context)
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	cron    *rcron.Cron
	cancel  context.CancelFunc
	stopCh  chan struct{}
	pending map[string]*debounced
}

type debounced struct {
	wait time.Duration
	fire func(func())
}

// New constructs an idle Scheduler. A non-positive interval means DefaultRefreshInterval.
// Other intervals are truncated to whole seconds, with MinRefreshInterval as the floor,
// so Interval reports the period that actually runs.
func New(interval time.Duration, task func(context.Context), opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if interval < MinRefreshInterval {
		interval = MinRefreshInterval
	}
	interval = interval.Truncate(time.Second)
	s := &Scheduler{
		interval: interval,
		task:     task,
		logger:   zerolog.Nop(),
		pending:  make(map[string]*debounced),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the refresh period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start arms the periodic task. It is a no-op when already Active.
// Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Active {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := rcron.New(rcron.WithLogger(cronLogger{s.logger}))
	c.Schedule(rcron.Every(s.interval), rcron.FuncJob(func() {
		if runCtx.Err() != nil {
			return
		}
		s.task(runCtx)
	}))
	c.Start()

	stopCh := make(chan struct{})
	s.cron = c
	s.cancel = cancel
	s.stopCh = stopCh
	s.state = Active
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
		}
	}()
}

// Stop disarms the periodic task, cancels pending debounced tasks and waits
// for a running tick to finish. It is a no-op when Idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	c := s.cron
	cancel := s.cancel
	stopCh := s.stopCh
	s.cron = nil
	s.cancel = nil
	s.stopCh = nil
	s.state = Idle
	for name, d := range s.pending {
		d.fire(func() {})
		delete(s.pending, name)
	}
	s.mu.Unlock()

	cancel()
	close(stopCh)
	select {
	case <-c.Stop().Done():
	case <-time.After(stopTimeout):
		s.logger.Warn().Msg("scheduler stop timed out waiting for running task")
	}
	s.logger.Info().Msg("scheduler stopped")
}

// Debounce schedules fn to run once wait has elapsed without another call under the same name.
func (s *Scheduler) Debounce(name string, wait time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.pending[name]
	if !ok || d.wait != wait {
		if ok {
			d.fire(func() {})
		}
		d = &debounced{wait: wait, fire: debounce.New(wait)}
		s.pending[name] = d
	}
	d.fire(fn)
}

// Cancel drops a pending debounced task.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.pending[name]; ok {
		d.fire(func() {})
		delete(s.pending, name)
	}
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
