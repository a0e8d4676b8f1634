// Package jobs runs periodic maintenance on a cron schedule in the Moscow
// zone.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	appLog "padelbot/internal/log"
	"padelbot/internal/monitor"
	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
)

// cronLogger routes cron's own logging into the log package. Routine
// scheduling chatter goes to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

// Scheduler owns a cron instance. Jobs receive the context passed to New,
// which is canceled by the caller on shutdown.
type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	ids  map[string]cron.EntryID
}

func New(ctx context.Context) *Scheduler {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(timeparse.Moscow),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{ctx: ctx, cron: c, ids: make(map[string]cron.EntryID)}
}

// Add registers fn under name with a standard cron spec or a descriptor
// such as "@every 1m".
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context)) error {
	id, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		fn(s.ctx)
		appLog.Debug("job finished", "job", name, "took", time.Since(started).String())
	})
	if err != nil {
		return errors.Wrapf(err, "schedule job %s (%q)", name, spec)
	}
	s.ids[name] = id
	appLog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Next reports the next activation of the named job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.ids[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for running jobs")
	}
}

// AddPrune schedules removal of ended visits.
func (s *Scheduler) AddPrune(store *visit.Store, spec string, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	return s.Add("prune", spec, func(context.Context) {
		if n := store.Prune(now()); n > 0 {
			appLog.Debug("prune job removed visits", "removed", n)
		}
	})
}

// AddMonitor schedules one monitor tick per activation.
func (s *Scheduler) AddMonitor(m *monitor.Monitor, spec string) error {
	return s.Add("monitor", spec, func(ctx context.Context) {
		m.Tick(ctx)
	})
}
