package sched

import (
	"context"
)

// SetIdleHook installs the single idle hook, replacing any previous one.
// It runs every time a burst drains the queue. nil removes it.
func (s *Scheduler) SetIdleHook(fn func()) {
	s.idleHook = fn
}

// OnIdle registers fn to run once, the next time a burst drains the queue.
func (s *Scheduler) OnIdle(fn func()) {
	s.idleListeners = append(s.idleListeners, fn)
}

func (s *Scheduler) notifyIdle() {
	listeners := s.idleListeners
	s.idleListeners = nil
	for _, fn := range listeners {
		fn()
	}
	if s.idleHook != nil {
		s.idleHook()
	}
	s.emit(StatusIdle, nil)
}

// Idle returns a channel closed once the queue has been observed empty on
// settleTurns consecutive host turns. Work scheduled by callbacks during
// that window resets the count. Intended for tests and drivers.
func (s *Scheduler) Idle() <-chan struct{} {
	done := make(chan struct{})
	if s.closed {
		close(done)
		return done
	}

	empty := 0
	var check func()
	check = func() {
		if s.live == 0 && !s.isPerformingWork && !s.armed {
			empty++
		} else {
			empty = 0
		}
		if empty >= s.settleTurns || s.closed {
			close(done)
			return
		}
		s.host.Post(check)
	}
	s.host.Post(check)
	return done
}

// WaitIdle blocks the calling goroutine until s, driven by loop, is idle.
// It must not be called from the loop goroutine.
func WaitIdle(ctx context.Context, loop *EventLoop, s *Scheduler) error {
	var idle <-chan struct{}
	if err := loop.Do(ctx, func() { idle = s.Idle() }); err != nil {
		return err
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-loop.Done():
		return ErrLoopStopped
	}
}
