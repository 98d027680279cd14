package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the cadences of the interval-driven jobs. The daily and
// weekly jobs run at fixed local times and are not configurable.
type Config struct {
	SweepInterval  time.Duration // conflict sweep, default 5m
	ExpiryInterval time.Duration // pending expiry, default 1h
	RollupInterval time.Duration // availability rollup, default 10m
}

// DefaultConfig returns the cadences from the scheduling requirements.
func DefaultConfig() Config {
	return Config{
		SweepInterval:  5 * time.Minute,
		ExpiryInterval: time.Hour,
		RollupInterval: 10 * time.Minute,
	}
}

// Scheduler drives the reconciler jobs on their cadences. Every job carries
// a single-flight guard: an overrunning execution makes the next tick skip
// instead of stacking a second instance.
type Scheduler struct {
	rec *Reconciler
	log *logrus.Logger
	cfg Config
}

func NewScheduler(rec *Reconciler, log *logrus.Logger, cfg Config) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.ExpiryInterval <= 0 {
		cfg.ExpiryInterval = DefaultConfig().ExpiryInterval
	}
	if cfg.RollupInterval <= 0 {
		cfg.RollupInterval = DefaultConfig().RollupInterval
	}
	return &Scheduler{rec: rec, log: log, cfg: cfg}
}

// Start launches one goroutine per job and returns immediately. The jobs
// stop when ctx is cancelled; in-flight transactions are not interrupted.
func (s *Scheduler) Start(ctx context.Context) {
	countJob := func(fn func(context.Context) (int, error)) func(context.Context) error {
		return func(ctx context.Context) error {
			_, err := fn(ctx)
			return err
		}
	}

	go s.runEvery(ctx, "conflict_sweep", s.cfg.SweepInterval, countJob(s.rec.SweepConflicts))
	go s.runEvery(ctx, "pending_expiry", s.cfg.ExpiryInterval, countJob(s.rec.ExpirePending))
	go s.runEvery(ctx, "availability_rollup", s.cfg.RollupInterval, countJob(s.rec.RollupRoomAvailability))
	go s.runDailyAt(ctx, "completion", 0, 0, countJob(s.rec.CompletePastStays))
	go s.runDailyAt(ctx, "reminders", 9, 0, countJob(s.rec.SendCheckInReminders))
	go s.runWeeklyAt(ctx, "weekly_report", time.Monday, 8, 0, s.rec.WeeklyReport)

	s.log.Info("reconciler scheduler started")
}

func (s *Scheduler) runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	var inFlight sync.Mutex

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, name, &inFlight, fn)
		case <-ctx.Done():
			s.log.WithField("job", name).Info("reconciler job stopped")
			return
		}
	}
}

func (s *Scheduler) runDailyAt(ctx context.Context, name string, hour, minute int, fn func(context.Context) error) {
	var inFlight sync.Mutex

	for {
		next := nextDaily(time.Now(), hour, minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.runOnce(ctx, name, &inFlight, fn)
		case <-ctx.Done():
			timer.Stop()
			s.log.WithField("job", name).Info("reconciler job stopped")
			return
		}
	}
}

func (s *Scheduler) runWeeklyAt(ctx context.Context, name string, weekday time.Weekday, hour, minute int, fn func(context.Context) error) {
	var inFlight sync.Mutex

	for {
		next := nextWeekly(time.Now(), weekday, hour, minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			s.runOnce(ctx, name, &inFlight, fn)
		case <-ctx.Done():
			timer.Stop()
			s.log.WithField("job", name).Info("reconciler job stopped")
			return
		}
	}
}

// runOnce executes the job in its own goroutine so the tick loop keeps
// observing the cadence; TryLock makes an overrunning execution skip the
// next tick instead of running twice.
func (s *Scheduler) runOnce(ctx context.Context, name string, inFlight *sync.Mutex, fn func(context.Context) error) {
	if !inFlight.TryLock() {
		s.log.WithField("job", name).Warn("previous run still in progress, skipping")
		return
	}
	go func() {
		defer inFlight.Unlock()
		if err := fn(ctx); err != nil {
			s.log.WithError(err).WithField("job", name).Error("reconciler job failed")
		}
	}()
}

// nextDaily returns the next occurrence of hour:minute after now, local time.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the next occurrence of the weekday at hour:minute.
func nextWeekly(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := nextDaily(now, hour, minute)
	for next.Weekday() != weekday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
