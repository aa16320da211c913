// Package scheduler runs the periodic full reset of the session store.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wricardo/courtqueue/logging"
	"github.com/wricardo/courtqueue/metrics"
)

// DefaultSchedule clears the store every day at local midnight
const DefaultSchedule = "0 0 * * *"

// resetTimeout bounds a single Clear call
const resetTimeout = 30 * time.Second

// Clearer is the part of the session store the scheduler needs
type Clearer interface {
	Clear(ctx context.Context) error
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation evaluates the schedule in loc instead of the local time zone
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// OnReset registers a hook called after every successful reset
func OnReset(fn func()) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

// Scheduler clears a store on a cron schedule
type Scheduler struct {
	store    Clearer
	spec     string
	location *time.Location
	logger   *slog.Logger
	hooks    []func()
	cron     *cron.Cron
}

// New validates spec (standard five-field cron syntax) and returns a stopped
// scheduler
func New(store Clearer, spec string, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		store:    store,
		spec:     spec,
		location: time.Local,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cron = cron.New(cron.WithLocation(s.location))
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule reset: %w", err)
	}
	return s, nil
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reset scheduler started", "schedule", s.spec, "next", s.Next())
}

// Stop halts the schedule and waits for a running reset to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the next scheduled reset time, or the zero time before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce clears the store immediately. Failures are logged and returned,
// never fatal.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	err := s.store.Clear(ctx)
	metrics.RecordReset(err)
	if err != nil {
		s.logger.Error("failed to reset sessions", "error", err)
		return err
	}

	s.logger.Info("sessions reset")
	for _, hook := range s.hooks {
		hook()
	}
	return nil
}
