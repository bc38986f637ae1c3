// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusSuppress
	StatusPrepare
	StatusExecute
	StatusFinish
	StatusAbort
	StatusFault
	StatusYield
)

// StatusEvent is emitted on every task transition and at burst boundaries.
type StatusEvent struct {
	Time     time.Time
	Clock    time.Duration // scheduler clock reading
	Kind     StatusKind
	TaskID   TaskID
	Priority Priority
	Scope    ScopeID
	Clean    bool
	Pending  int // tasks still waiting to run after the event
}

// EventSink receives status events on the scheduler's execution context.
// It must not block.
type EventSink func(StatusEvent)

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusSuppress:
		return "Suppress"
	case StatusPrepare:
		return "Prepare"
	case StatusExecute:
		return "Execute"
	case StatusFinish:
		return "Finish"
	case StatusAbort:
		return "Abort"
	case StatusFault:
		return "Fault"
	case StatusYield:
		return "Yield"
	default:
		return "Unknown"
	}
}

func (s *Scheduler) emit(kind StatusKind, t *Task) {
	if s.sink == nil {
		return
	}
	ev := StatusEvent{
		Time:    time.Now(),
		Clock:   s.clock.Now(),
		Kind:    kind,
		Pending: s.live,
	}
	if t != nil {
		ev.TaskID = t.id
		ev.Priority = t.priority
		ev.Scope = t.scope
		ev.Clean = t.isClean
	}
	s.sink(ev)
}
