// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"runtime/debug"
	"time"

	"slicesched/internal/logx"
)

// PanicHandler receives the value recovered from a panicking task
// callback, along with the stack at the time of the panic.
type PanicHandler func(t *Task, rec any, stack []byte)

// Scheduler time-slices tasks on a single execution context owned by its
// Host. It holds no locks: every method must be called from that context
// (from a task callback, a listener, or a function funneled through
// EventLoop.Do / EventLoop.Submit).
type Scheduler struct {
	host    Host
	clock   Clock
	log     logx.Logger
	sink    EventSink
	onPanic PanicHandler
	preExec func(*Task)

	sliceWidth  time.Duration // time budget of one burst
	settleTurns int           // empty turns Idle waits for

	queue  *taskHeap
	nextID TaskID
	live   int // tasks in the heap that are neither executed nor aborted

	scopes    map[ScopeID]*Task
	nextScope ScopeID

	nextListener ListenerID

	current          *Task
	isPerformingWork bool
	armed            bool // a performWorkUntilDeadline turn is posted
	queueStartTime   time.Duration
	yieldRequested   bool

	idleHook      func()
	idleListeners []func()

	stats  Stats
	closed bool
}

// Stats counts scheduler activity since construction.
type Stats struct {
	Enqueued   int64
	Executed   int64
	Aborted    int64
	Suppressed int64
	Faults     int64
	Bursts     int64
	Yields     int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the default monotonic clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for scheduler diagnostics.
func WithLogger(l logx.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithEventSink streams status events to sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

// WithPanicHandler is called after a task callback panicked.
func WithPanicHandler(h PanicHandler) Option {
	return func(s *Scheduler) { s.onPanic = h }
}

// New creates a new Scheduler driven by host with the given configuration.
func New(host Host, cfg Config, opts ...Option) *Scheduler {
	cfg.sanitize()

	s := &Scheduler{
		host:        host,
		clock:       NewMonotonicClock(),
		log:         logx.Nop(),
		sliceWidth:  cfg.SliceWidth(),
		settleTurns: cfg.IdleSettleTurns,
		queue:       newTaskHeap(),
		scopes:      make(map[ScopeID]*Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close aborts every outstanding task and rejects further work: tasks
// scheduled afterwards are born aborted.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for {
		t, ok := s.queue.pop()
		if !ok {
			break
		}
		s.abortTask(t)
	}
	s.queue.clear()
	clear(s.scopes)
	s.log.Debug("scheduler closed", logx.Int64("executed", s.stats.Executed))
}

// IsClosed reports whether Close has been called.
func (s *Scheduler) IsClosed() bool { return s.closed }

// Schedule creates a clean task; its handle is returned unconditionally.
func (s *Scheduler) Schedule(priority Priority, callback func()) *AbortHandle {
	return s.schedule(ClampPriority(priority), callback, true, 0)
}

func (s *Scheduler) schedule(priority Priority, callback func(), clean bool, scope ScopeID) *AbortHandle {
	s.nextID++
	t := newTask(s.nextID, priority, s.clock.Now(), callback, clean)
	h := &AbortHandle{s: s, t: t}

	if s.closed {
		t.status = StatusAborted
		t.callback = nil
		s.log.Warn("task rejected: scheduler closed", logx.Uint64("task", uint64(t.id)))
		return h
	}

	if scope != 0 {
		t.scope = scope
		t.scopeToHandle = scope
		s.scopes[scope] = t
	}

	s.queue.push(t)
	s.live++
	s.stats.Enqueued++
	s.emit(StatusEnqueue, t)

	s.requestHostCallback()
	return h
}

// requestHostCallback arms the loop unless a turn is already posted or
// the loop is running, in which case it will see the new task.
func (s *Scheduler) requestHostCallback() {
	if s.armed || s.isPerformingWork {
		return
	}
	s.armed = true
	s.host.Post(s.performWorkUntilDeadline)
}

// performWorkUntilDeadline is one host turn: a burst of work bounded by the
// slice width.
func (s *Scheduler) performWorkUntilDeadline() {
	s.armed = false
	if s.closed {
		return
	}

	now := s.clock.Now()
	s.queueStartTime = now
	s.yieldRequested = false
	s.stats.Bursts++

	if s.flushWork(true, now) {
		s.stats.Yields++
		s.emit(StatusYield, nil)
		s.requestHostCallback()
		return
	}
	if s.closed {
		return
	}
	s.notifyIdle()
}

// shouldYield reports whether the current burst has used its slice or a
// yield was requested from outside.
func (s *Scheduler) shouldYield(now time.Duration) bool {
	return s.yieldRequested || now-s.queueStartTime >= s.sliceWidth
}

// RequestYield makes the running burst hand control back to the host at
// the next task boundary, even for expired tasks.
func (s *Scheduler) RequestYield() {
	s.yieldRequested = true
}

func (s *Scheduler) flushWork(hasTimeRemaining bool, initialTime time.Duration) bool {
	s.isPerformingWork = true
	defer func() {
		s.isPerformingWork = false
		s.current = nil
	}()
	return s.workLoop(hasTimeRemaining, initialTime)
}

// workLoop runs tasks in (deadline, id) order until the heap is empty or
// the burst budget is used up. It reports whether work remains.
//
// The root is re-peeked after every task: callbacks may push more urgent
// work or abort queued tasks, so nothing observed before a callback is
// trusted after it.
func (s *Scheduler) workLoop(hasTimeRemaining bool, initialTime time.Duration) bool {
	now := initialTime
	for {
		t, ok := s.peekLive()
		if !ok {
			return false
		}

		expired := t.expiration <= now
		if !expired && (!hasTimeRemaining || s.shouldYield(now)) {
			return true
		}
		if expired && s.yieldRequested {
			return true
		}

		t.status = StatusPrepared
		s.emit(StatusPrepare, t)
		if s.preExec != nil {
			s.invoke(t, func() { s.preExec(t) })
		}
		if t.status != StatusPrepared {
			// aborted by the pre-execute hook
			now = s.clock.Now()
			continue
		}

		s.runTask(t)

		if root, ok := s.queue.peek(); ok && root == t {
			s.queue.pop()
		}
		now = s.clock.Now()
	}
}

// peekLive returns the root, discarding executed and aborted tasks that
// are still physically in the heap.
func (s *Scheduler) peekLive() (*Task, bool) {
	for {
		t, ok := s.queue.peek()
		if !ok {
			return nil, false
		}
		if !t.status.Terminal() {
			return t, true
		}
		s.queue.pop()
	}
}

func (s *Scheduler) runTask(t *Task) {
	cb := t.callback
	t.callback = nil
	t.status = StatusExecuting
	s.live--
	s.current = t
	s.emit(StatusExecute, t)

	if cb != nil {
		s.invoke(t, cb)
	}
	for len(t.onExecuted) > 0 {
		fn := t.onExecuted[0]
		t.onExecuted[0] = nil
		t.onExecuted = t.onExecuted[1:]
		s.invoke(t, fn)
	}
	t.onExecuted = nil

	t.status = StatusExecuted
	t.scopeToHandle = 0
	s.releaseScope(t)
	s.current = nil
	s.stats.Executed++
	s.emit(StatusFinish, t)
}

// invoke runs fn on behalf of t and turns a panic into a fault report.
// A panicking callback still counts as completed; a panicking pre-execute
// hook leaves t to run.
func (s *Scheduler) invoke(t *Task, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.fault(t, rec, debug.Stack())
		}
	}()
	fn()
}

func (s *Scheduler) fault(t *Task, rec any, stack []byte) {
	s.stats.Faults++
	s.log.Error("task callback panicked",
		logx.Uint64("task", uint64(t.id)),
		logx.String("priority", t.priority.String()),
		logx.String("panic", fmt.Sprint(rec)),
		logx.Stack(string(stack)),
	)
	s.emit(StatusFault, t)
	if s.onPanic != nil {
		s.onPanic(t, rec, stack)
	}
}

// abortTask cancels a task that has not started. It reports false when
// the task is executing or already finished.
func (s *Scheduler) abortTask(t *Task) bool {
	if t.status != StatusPending && t.status != StatusPrepared {
		return false
	}
	t.status = StatusAborted
	t.callback = nil
	t.onExecuted = nil
	t.scopeToHandle = 0
	s.live--
	s.releaseScope(t)
	s.stats.Aborted++
	s.log.Debug("task aborted", logx.Uint64("task", uint64(t.id)), logx.Uint64("scope", uint64(t.scope)))
	s.emit(StatusAbort, t)
	t.fireAborted()
	return true
}

// mustAbort aborts a task the scope map still considers outstanding. Map
// entries are released on completion, so anything else is a bug.
func (s *Scheduler) mustAbort(t *Task) {
	if t.status == StatusExecuted || t.status == StatusAborted {
		panic(fmt.Sprintf("sched: scope map holds finished %s", t))
	}
	if !s.abortTask(t) {
		panic(fmt.Sprintf("sched: cannot abort %s", t))
	}
}

// SetPreExecuteHook installs a hook called when a task is Prepared, right
// before its callback runs. The hook may abort the task.
func (s *Scheduler) SetPreExecuteHook(fn func(*Task)) {
	s.preExec = fn
}

// CurrentTask returns the task whose callback is running, or nil.
func (s *Scheduler) CurrentTask() *Task { return s.current }

// IsExecuting reports whether the caller runs inside a task callback.
func (s *Scheduler) IsExecuting() bool { return s.current != nil }

// IsExecutingClean reports whether the running task is a clean task.
func (s *Scheduler) IsExecutingClean() bool { return s.current != nil && s.current.isClean }

// IsExecutingDirty reports whether the running task is a coalesced task.
func (s *Scheduler) IsExecutingDirty() bool { return s.current != nil && !s.current.isClean }

// OnCompletion registers fn to run once the current task's callback
// returns, before the task becomes Executed.
func (s *Scheduler) OnCompletion(fn func()) error {
	if s.current == nil {
		return fmt.Errorf("register completion listener: %w", ErrNotExecuting)
	}
	s.current.onExecuted = append(s.current.onExecuted, fn)
	return nil
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int { return s.live }

// Stats returns a snapshot of the activity counters.
func (s *Scheduler) Stats() Stats { return s.stats }

// Now returns the scheduler clock reading.
func (s *Scheduler) Now() time.Duration { return s.clock.Now() }
