package background

import (
	"context"
	"time"

	"storefront-backend/pkg/logger"
)

// JanitorJobName identifies the demo session sweep in job metrics and logs.
const JanitorJobName = "demo-session-janitor"

// SessionSweeper deletes demo sessions past their retention window.
type SessionSweeper interface {
	SweepDemoSessions(ctx context.Context) (int, error)
}

// Janitor periodically removes expired demo checkout sessions.
type Janitor struct {
	sweeper  SessionSweeper
	interval time.Duration
}

func NewJanitor(sweeper SessionSweeper, interval time.Duration) *Janitor {
	return &Janitor{sweeper: sweeper, interval: interval}
}

// Job describes one sweep. The timeout keeps a slow store from overlapping
// the next tick.
func (j *Janitor) Job() Job {
	return Job{
		Name:    JanitorJobName,
		Run:     j.RunOnce,
		Timeout: j.interval,
	}
}

// Register schedules the sweep on every interval.
func (j *Janitor) Register(s *Scheduler) error {
	return s.Every(j.Job(), j.interval)
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce(ctx context.Context) error {
	removed, err := j.sweeper.SweepDemoSessions(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Demo session sweep finished", map[string]interface{}{"removed": removed})
	return nil
}
