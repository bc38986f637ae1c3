package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slicesched/internal/logx"
	"slicesched/internal/sched"
)

func newSubmitter(t *testing.T) (*Submitter, *sched.Scheduler, *sched.ManualHost, *sched.TickClock) {
	t.Helper()
	host := sched.NewManualHost()
	clock := sched.NewTickClock()
	s := sched.New(host, sched.DefaultConfig(), sched.WithClock(clock))
	return NewSubmitter(s, clock, logx.Nop()), s, host, clock
}

func TestBusy_AdvancesTickClock(t *testing.T) {
	clock := sched.NewTickClock()
	Busy(clock, 5*time.Millisecond)()
	Busy(clock, 0)()
	assert.Equal(t, 5*time.Millisecond, clock.Now())
}

// TestSubmitter_CoalescesScopedJobs
// Given: a scoped job repeated three times and a clean job repeated twice
// When: the workload is submitted and drained
// Then: the scoped repeats collapse into one task and all tasks complete
func TestSubmitter_CoalescesScopedJobs(t *testing.T) {
	sub, s, host, clock := newSubmitter(t)

	err := sub.Submit([]sched.JobSpec{
		{Name: "header", Priority: "normal", Scope: "header", Repeat: 3, WorkMS: 2},
		{Name: "layout", Priority: "1", Repeat: 2},
	})
	require.NoError(t, err)

	r := sub.Report()
	assert.Equal(t, 3, r.Scheduled)
	assert.Equal(t, 2, r.Suppressed)
	assert.Equal(t, 3, s.Pending())

	host.Drain()
	assert.Equal(t, 3, sub.Report().Completed)
	assert.Equal(t, 2*time.Millisecond, clock.Now())
}

func TestSubmitter_UrgentRequestReplacesPending(t *testing.T) {
	sub, s, host, _ := newSubmitter(t)

	require.NoError(t, sub.Submit([]sched.JobSpec{
		{Name: "slow", Priority: "low", Scope: "list"},
		{Name: "fast", Priority: "user-blocking", Scope: "list"},
	}))
	assert.Equal(t, 2, sub.Report().Scheduled)
	assert.Equal(t, 1, s.Pending())

	host.Drain()
	assert.Equal(t, 1, sub.Report().Completed)
	assert.EqualValues(t, 1, s.Stats().Aborted)
}

func TestSubmitter_SyncJobs(t *testing.T) {
	sub, _, host, _ := newSubmitter(t)

	require.NoError(t, sub.Submit([]sched.JobSpec{
		{Name: "queued", Priority: "low", Scope: "a"},
		{Name: "sync-a", Scope: "a", Sync: true},
		{Name: "sync-b", Scope: "b", Sync: true, Repeat: 2},
	}))

	r := sub.Report()
	assert.Equal(t, 1, r.SyncRefused, "pending task outside a callback keeps its scope")
	assert.Equal(t, 2, r.SyncRan)
	assert.Equal(t, 2, r.Completed)

	host.Drain()
	assert.Equal(t, 3, sub.Report().Completed)
}

func TestSubmitter_RejectsInvalidPriority(t *testing.T) {
	sub, s, _, _ := newSubmitter(t)

	err := sub.Submit([]sched.JobSpec{
		{Name: "ok", Priority: "normal"},
		{Name: "bad", Priority: "urgent"},
	})
	require.ErrorIs(t, err, sched.ErrInvalidPriority)
	assert.Contains(t, err.Error(), "bad")
	assert.Zero(t, s.Pending(), "nothing is scheduled from an invalid workload")
}

func TestSubmitter_ClosedScheduler(t *testing.T) {
	sub, s, _, _ := newSubmitter(t)
	s.Close()

	err := sub.Submit([]sched.JobSpec{{Name: "late"}})
	assert.ErrorIs(t, err, sched.ErrClosed)
	assert.Zero(t, sub.Report().Scheduled)
}
