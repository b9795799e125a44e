package server

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/autofyn/linkedgen/internal/runtime"
	"github.com/autofyn/linkedgen/internal/store"
	"github.com/autofyn/linkedgen/models"
)

const schedLockKey = "sched:lock:ideas"

// Scheduler fires the idea pipeline on the configured cron spec. One
// instance per process; the redis lock keeps a fleet from firing twice.
type Scheduler struct {
	Rt   *runtime.Runtime
	Stop chan struct{}

	// tickEvery shortens the poll interval in tests. Zero means hourly,
	// which is fine-grained enough for five-field cron specs.
	tickEvery time.Duration
	lastFired time.Time
}

func (s *Scheduler) Start() {
	every := s.tickEvery
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	cfg := s.Rt.Config.Scheduler
	if !isDue(cfg.Spec, s.lastRun(ctx), time.Now()) {
		return
	}

	if s.Rt.Redis != nil {
		ok, err := s.Rt.Redis.SetNX(ctx, schedLockKey, "1", 2*time.Minute).Result()
		if err != nil || !ok {
			return
		}
		defer s.Rt.Redis.Del(ctx, schedLockKey)
	}

	s.lastFired = time.Now()
	runID := s.Rt.BeginRun(ctx, store.RunKindIdeas, store.TriggerSchedule)
	s.Rt.Logger.Printf("scheduled idea run starting (run=%q)", runID)

	rctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	in := models.GenerateInput{Subject: cfg.Subject}
	if err := processIdeas(rctx, s.Rt, runID, store.TriggerSchedule, cfg.TwoPhase, in); err != nil {
		s.Rt.Logger.Printf("scheduled idea run failed: %v", err)
	}
}

// lastRun consults run history when available; otherwise the process
// remembers its own firings, which covers a storeless single replica.
func (s *Scheduler) lastRun(ctx context.Context) *time.Time {
	if s.Rt.Store != nil {
		if last, err := s.Rt.Store.LatestRunTime(ctx, store.RunKindIdeas); err == nil && last != nil {
			return last
		}
	}
	if s.lastFired.IsZero() {
		return nil
	}
	t := s.lastFired
	return &t
}

// isDue reports whether the spec should fire given the last run time.
// Supports "@daily", "@hourly" and five-field cron expressions; an
// invalid spec degrades to @daily.
func isDue(spec string, last *time.Time, now time.Time) bool {
	switch spec {
	case "@daily":
		return last == nil || now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return last == nil || now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(spec)
		if err != nil {
			return last == nil || now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		return !expr.Next(*last).After(now)
	}
}
