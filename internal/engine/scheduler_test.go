package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (*RunResult, error) {
	r.calls.Add(1)
	return &RunResult{RunID: "test"}, r.err
}

func TestNewScheduler_RegistersCronEntry(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(context.Background(), &countingRunner{}, 15*time.Minute, quietLogger())
	require.NoError(t, err)

	entries := sched.Entries()
	assert.Len(t, entries, 1)
}

func TestScheduler_EntryUsesInterval(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(context.Background(), &countingRunner{}, 90*time.Second, quietLogger())
	require.NoError(t, err)

	require.Len(t, sched.Entries(), 1)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(90*time.Second), sched.Entries()[0].Schedule.Next(from))
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(context.Background(), &countingRunner{}, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()
}

func TestScheduler_RunNow(t *testing.T) {
	t.Parallel()

	r := &countingRunner{}
	sched, err := NewScheduler(context.Background(), r, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.RunNow()
	assert.Equal(t, int32(1), r.calls.Load())

	r.err = errors.New("boom")
	sched.RunNow()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestScheduler_SkipsWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &countingRunner{}
	sched, err := NewScheduler(ctx, r, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.RunNow()
	assert.Equal(t, int32(0), r.calls.Load())
}
