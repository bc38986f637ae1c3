package job

import (
	"fmt"
	"time"

	"slicesched/internal/logx"
	"slicesched/internal/sched"
)

// Report summarizes what happened to a submitted workload.
type Report struct {
	Scheduled   int // tasks created
	Suppressed  int // coalesced requests that returned no handle
	SyncRan     int // RunSynchronously calls that ran their work
	SyncRefused int
	Completed   int // callbacks that ran, scheduled or synchronous
}

// Submitter turns workload specs into scheduler calls. It must be used
// from the scheduler's execution context.
type Submitter struct {
	s      *sched.Scheduler
	clock  *sched.TickClock
	log    logx.Logger
	scopes map[string]sched.ScopeID

	report Report
}

// NewSubmitter creates a Submitter. clock may be nil for real-time work.
func NewSubmitter(s *sched.Scheduler, clock *sched.TickClock, log logx.Logger) *Submitter {
	return &Submitter{
		s:      s,
		clock:  clock,
		log:    log,
		scopes: make(map[string]sched.ScopeID),
	}
}

// Submit validates every spec first and then issues the calls in order.
func (sub *Submitter) Submit(specs []sched.JobSpec) error {
	if sub.s.IsClosed() {
		return sched.ErrClosed
	}
	prios := make([]sched.Priority, len(specs))
	for i, spec := range specs {
		p, err := sched.ParsePriority(string(spec.Priority))
		if err != nil {
			return fmt.Errorf("workload entry %d (%s): %w", i, spec.Name, err)
		}
		prios[i] = p
	}

	for i, spec := range specs {
		repeat := max(spec.Repeat, 1)
		for range repeat {
			sub.submitOne(spec, prios[i])
		}
	}
	return nil
}

func (sub *Submitter) submitOne(spec sched.JobSpec, p sched.Priority) {
	work := Busy(sub.clock, time.Duration(spec.WorkMS)*time.Millisecond)
	name := spec.Name
	run := func() {
		work()
		sub.report.Completed++
		sub.log.Trace("job ran", logx.String("job", name))
	}

	scope := sub.scope(spec.Scope)
	switch {
	case spec.Sync:
		if sub.s.RunSynchronously(scope, run) {
			sub.report.SyncRan++
		} else {
			sub.report.SyncRefused++
		}
	case scope != 0:
		if h := sub.s.ScheduleCoalesced(p, run, scope); h != nil {
			sub.report.Scheduled++
		} else {
			sub.report.Suppressed++
		}
	default:
		sub.s.Schedule(p, run)
		sub.report.Scheduled++
	}
}

// scope maps a label to a stable scope handle; empty labels mean no scope.
func (sub *Submitter) scope(label string) sched.ScopeID {
	if label == "" {
		return 0
	}
	id, ok := sub.scopes[label]
	if !ok {
		id = sub.s.NewScope()
		sub.scopes[label] = id
	}
	return id
}

// Report returns the counters so far.
func (sub *Submitter) Report() Report { return sub.report }
