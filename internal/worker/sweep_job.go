package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/swapcrate/swapcrate/internal/logger"
)

// SweepFunc is a deadline sweep: it advances everything past its deadline and
// reports how many records it moved
type SweepFunc func(ctx context.Context, now time.Time) (int, error)

// SweepJob wraps a deadline sweep as a pool job. The scheduler enqueues one
// per tick; sweeps are idempotent so an overlapping run is harmless.
type SweepJob struct {
	Name  string
	Sweep SweepFunc
}

// NewSweepJob creates a named sweep job
func NewSweepJob(name string, sweep SweepFunc) *SweepJob {
	return &SweepJob{Name: name, Sweep: sweep}
}

// Process runs the sweep against the current clock
func (j *SweepJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgSweepStarting, "sweep", j.Name)

	swept, err := j.Sweep(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep %s: %w", j.Name, err)
	}

	if swept > 0 {
		log.Info(LogMsgSweepCompleted, "sweep", j.Name, "swept", swept)
	}
	return nil
}
