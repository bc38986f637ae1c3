package sched

// ListenerID identifies a registered abort listener.
type ListenerID uint64

// AbortHandle cancels a scheduled task and observes its cancellation.
// A nil handle, as returned for a suppressed request, is valid: Cancel and
// listener registration are no-ops and Status reports StatusAborted.
type AbortHandle struct {
	s *Scheduler
	t *Task
}

// Cancel aborts the task if it has not started. Executing and finished
// tasks are left untouched and Cancel reports false.
func (h *AbortHandle) Cancel() bool {
	if h == nil {
		return false
	}
	return h.s.abortTask(h.t)
}

// OnAbort registers fn to run once if the task is aborted. Listeners added
// after the task started or finished are discarded and 0 is returned.
func (h *AbortHandle) OnAbort(fn func()) ListenerID {
	if h == nil || fn == nil {
		return 0
	}
	if h.t.status != StatusPending && h.t.status != StatusPrepared {
		return 0
	}
	h.s.nextListener++
	id := h.s.nextListener
	h.t.abortListeners = append(h.t.abortListeners, abortListener{id: id, fn: fn})
	return id
}

// RemoveAbortListener detaches a listener registered with OnAbort.
func (h *AbortHandle) RemoveAbortListener(id ListenerID) bool {
	if h == nil || id == 0 {
		return false
	}
	for i, l := range h.t.abortListeners {
		if l.id == id {
			h.t.abortListeners = append(h.t.abortListeners[:i], h.t.abortListeners[i+1:]...)
			return true
		}
	}
	return false
}

// Task returns the task behind the handle.
func (h *AbortHandle) Task() *Task {
	if h == nil {
		return nil
	}
	return h.t
}

// Status returns the task status.
func (h *AbortHandle) Status() Status {
	if h == nil {
		return StatusAborted
	}
	return h.t.status
}
