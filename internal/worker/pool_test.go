package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	executed *int32
}

func (j *countingJob) Process(ctx context.Context) error {
	atomic.AddInt32(j.executed, 1)
	return nil
}

func TestPool(t *testing.T) {
	var executed int32
	pool := NewPool(2, 10)
	pool.Start()

	job := &countingJob{executed: &executed}
	pool.Enqueue(job)
	pool.Enqueue(job)

	// Wait a bit for workers to process
	time.Sleep(50 * time.Millisecond)

	pool.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&executed))
}

func TestPool_JobErrorDoesNotStopWorkers(t *testing.T) {
	var executed int32
	pool := NewPool(1, 10)
	pool.Start()

	pool.Enqueue(NewSweepJob("failing", func(ctx context.Context, now time.Time) (int, error) {
		return 0, errors.New("boom")
	}))
	pool.Enqueue(&countingJob{executed: &executed})

	time.Sleep(50 * time.Millisecond)
	pool.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

func TestSweepJob_Process(t *testing.T) {
	var gotNow time.Time
	job := NewSweepJob("test", func(ctx context.Context, now time.Time) (int, error) {
		gotNow = now
		return 3, nil
	})

	require.NoError(t, job.Process(context.Background()))
	assert.False(t, gotNow.IsZero())
}
