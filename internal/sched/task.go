package sched

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TaskID uniquely identifies a task in the scheduler.
type TaskID uint64

// Priority is the urgency of a task, 1 being the most urgent.
type Priority int

const (
	PriorityImmediate    Priority = 1
	PriorityUserBlocking Priority = 2
	PriorityNormal       Priority = 3
	PriorityLow          Priority = 4
	PriorityIdle         Priority = 5

	MinPriority = PriorityImmediate
	MaxPriority = PriorityIdle
)

// Per-priority deadline budgets. Immediate tasks are born expired.
const (
	immediateTimeout    = 0
	userBlockingTimeout = 250 * time.Millisecond
	normalTimeout       = 5000 * time.Millisecond
	lowTimeout          = 10000 * time.Millisecond
	idleTimeout         = time.Duration(math.MaxInt64)
)

// ClampPriority forces p into [MinPriority, MaxPriority].
func ClampPriority(p Priority) Priority {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Timeout returns the deadline budget of a priority.
func (p Priority) Timeout() time.Duration {
	switch ClampPriority(p) {
	case PriorityImmediate:
		return immediateTimeout
	case PriorityUserBlocking:
		return userBlockingTimeout
	case PriorityLow:
		return lowTimeout
	case PriorityIdle:
		return idleTimeout
	default:
		return normalTimeout
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityImmediate:
		return "immediate"
	case PriorityUserBlocking:
		return "user-blocking"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityIdle:
		return "idle"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePriority accepts a priority name or its number.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "immediate":
		return PriorityImmediate, nil
	case "user-blocking", "userblocking":
		return PriorityUserBlocking, nil
	case "", "normal":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	case "idle":
		return PriorityIdle, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || Priority(n) < MinPriority || Priority(n) > MaxPriority {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return Priority(n), nil
}

// Status is the lifecycle state of a task.
type Status int

const (
	StatusPending Status = iota
	StatusPrepared
	StatusExecuting
	StatusExecuted
	StatusAborted
)

func (st Status) String() string {
	switch st {
	case StatusPending:
		return "Pending"
	case StatusPrepared:
		return "Prepared"
	case StatusExecuting:
		return "Executing"
	case StatusExecuted:
		return "Executed"
	case StatusAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (st Status) Terminal() bool {
	return st == StatusExecuted || st == StatusAborted
}

// Task represents one schedulable task unit.
//
// Tasks are owned by the Scheduler and must only be inspected from the
// host's execution context.
type Task struct {
	id         TaskID
	priority   Priority
	startTime  time.Duration
	expiration time.Duration // also the heap sort index
	status     Status
	callback   func()
	isClean    bool

	scope         ScopeID // registration key in the scope map, 0 if none
	scopeToHandle ScopeID // one-shot binding consumed by RunSynchronously

	onExecuted     []func()
	abortListeners []abortListener
}

type abortListener struct {
	id ListenerID
	fn func()
}

// newTask creates a pending task. The priority is clamped into the legal
// region and the expiration saturates instead of overflowing.
func newTask(id TaskID, priority Priority, now time.Duration, callback func(), clean bool) *Task {
	priority = ClampPriority(priority)
	return &Task{
		id:         id,
		priority:   priority,
		startTime:  now,
		expiration: saturatingAdd(now, priority.Timeout()),
		status:     StatusPending,
		callback:   callback,
		isClean:    clean,
	}
}

func saturatingAdd(a, b time.Duration) time.Duration {
	if b > 0 && a > math.MaxInt64-b {
		return time.Duration(math.MaxInt64)
	}
	if b < 0 && a < math.MinInt64-b {
		return time.Duration(math.MinInt64)
	}
	return a + b
}

func (t *Task) ID() TaskID                    { return t.id }
func (t *Task) Priority() Priority            { return t.priority }
func (t *Task) Status() Status                { return t.status }
func (t *Task) StartTime() time.Duration      { return t.startTime }
func (t *Task) ExpirationTime() time.Duration { return t.expiration }
func (t *Task) IsClean() bool                 { return t.isClean }
func (t *Task) Scope() ScopeID                { return t.scope }

func (t *Task) String() string {
	return fmt.Sprintf("task#%d(%s,%s)", t.id, t.priority, t.status)
}

// fireAborted runs and discards the abort listeners.
func (t *Task) fireAborted() {
	listeners := t.abortListeners
	t.abortListeners = nil
	for _, l := range listeners {
		l.fn()
	}
}
