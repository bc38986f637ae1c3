package sched

import "slicesched/internal/logx"

// ScopeID is an opaque handle for a coalescing scope. The scheduler keys
// its scope map on the handle only, so it never keeps the scope's owner
// alive. Zero means "no scope".
type ScopeID uint64

// NewScope returns a fresh scope handle. Handles are never reused.
func (s *Scheduler) NewScope() ScopeID {
	s.nextScope++
	return s.nextScope
}

// Outstanding returns the task currently representing scope, if any.
func (s *Scheduler) Outstanding(scope ScopeID) (*Task, bool) {
	t, ok := s.scopes[scope]
	return t, ok
}

// ScheduleCoalesced schedules dirty work on behalf of scope, keeping at
// most one outstanding task per scope.
//
// The request is suppressed and nil returned when the scope's outstanding
// task is already Prepared or Executing, or is at least as urgent as
// priority. A less urgent Pending task is aborted and replaced.
func (s *Scheduler) ScheduleCoalesced(priority Priority, callback func(), scope ScopeID) *AbortHandle {
	priority = ClampPriority(priority)
	if scope == 0 {
		return s.schedule(priority, callback, false, 0)
	}

	// Abort listeners run synchronously and may schedule into the same
	// scope, so the outstanding task is looked up again after every abort.
	for {
		t, ok := s.scopes[scope]
		if !ok {
			break
		}
		if t.status == StatusPrepared || t.status == StatusExecuting || t.priority <= priority {
			s.suppress(scope, t, priority)
			return nil
		}
		s.mustAbort(t)
	}

	return s.schedule(priority, callback, false, scope)
}

func (s *Scheduler) suppress(scope ScopeID, outstanding *Task, requested Priority) {
	s.stats.Suppressed++
	s.log.Debug("coalesced request suppressed",
		logx.Uint64("scope", uint64(scope)),
		logx.Uint64("outstanding", uint64(outstanding.id)),
		logx.String("status", outstanding.status.String()),
		logx.String("requested", requested.String()),
	)
	s.emit(StatusSuppress, outstanding)
}

// RunSynchronously tries to do scope's work right now instead of deferring
// it, and reports whether work ran.
//
// Inside a clean task the work always runs. Otherwise the scope's
// outstanding task decides: a Prepared task refuses; an Executing task
// lets the work through once if it is the running task bound to scope;
// a Pending task is aborted in favour of running now, but only from inside
// a task. Without an outstanding task the work runs, and from inside a
// task the scope stays bound to that task until it completes so repeated
// calls in the same callback are suppressed.
func (s *Scheduler) RunSynchronously(scope ScopeID, work func()) bool {
	cur := s.current
	if cur != nil && cur.isClean {
		work()
		return true
	}
	if scope == 0 {
		work()
		return true
	}

	for {
		t, ok := s.scopes[scope]
		if !ok {
			break
		}
		switch t.status {
		case StatusPrepared:
			s.suppress(scope, t, t.priority)
			return false
		case StatusExecuting:
			if cur != t || t.scopeToHandle != scope {
				s.suppress(scope, t, t.priority)
				return false
			}
			t.scopeToHandle = 0
			work()
			return true
		case StatusPending:
			if cur == nil {
				return false
			}
			s.mustAbort(t) // listeners may reinstall the scope; look again
		default:
			s.mustAbort(t) // panics: finished tasks never stay in the map
		}
	}

	if cur != nil {
		s.bindScope(scope, cur)
	}
	work()
	return true
}

// bindScope makes the running task stand in for scope until it completes.
func (s *Scheduler) bindScope(scope ScopeID, t *Task) {
	s.scopes[scope] = t
	t.onExecuted = append(t.onExecuted, func() {
		if s.scopes[scope] == t {
			delete(s.scopes, scope)
		}
	})
}

// releaseScope drops t's own scope map entry.
func (s *Scheduler) releaseScope(t *Task) {
	if t.scope == 0 {
		return
	}
	if s.scopes[t.scope] == t {
		delete(s.scopes, t.scope)
	}
}
