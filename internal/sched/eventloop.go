package sched

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"slicesched/internal/logx"
)

// EventLoop binds a dedicated goroutine as the scheduler's single
// execution context. Everything posted to it runs sequentially on that
// goroutine, one callback per turn.
//
// Other goroutines never touch the Scheduler directly: they funnel work
// through Do or Submit.
type EventLoop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	closed  atomic.Bool

	turns atomic.Int64
	log   logx.Logger
}

// NewEventLoop creates and starts an EventLoop.
func NewEventLoop(log logx.Logger) *EventLoop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &EventLoop{
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		log:     log,
	}

	go l.runLoop()

	return l
}

// Post implements Host. It never blocks; posts after Stop are dropped.
func (l *EventLoop) Post(fn func()) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Submit queues fn for execution on the loop goroutine.
func (l *EventLoop) Submit(fn func()) error {
	if l.closed.Load() {
		return ErrLoopStopped
	}
	l.Post(fn)
	return nil
}

// Do runs fn on the loop goroutine and waits for it to return.
// It must not be called from the loop goroutine itself.
func (l *EventLoop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Turns returns how many callbacks the loop has run.
func (l *EventLoop) Turns() int64 { return l.turns.Load() }

// IsClosed reports whether Stop has been called.
func (l *EventLoop) IsClosed() bool { return l.closed.Load() }

// Stop terminates the loop after the current callback returns. Callbacks
// still queued are dropped.
func (l *EventLoop) Stop() {
	l.once.Do(func() {
		l.closed.Store(true)
		l.cancel()
		<-l.stopped
	})
}

// Done is closed once the loop goroutine has exited.
func (l *EventLoop) Done() <-chan struct{} { return l.stopped }

func (l *EventLoop) runLoop() {
	defer close(l.stopped)

	for {
		fn, ok := l.next()
		if !ok {
			select {
			case <-l.wake:
				continue
			case <-l.ctx.Done():
				return
			}
		}
		if l.ctx.Err() != nil {
			return
		}
		l.turns.Add(1)
		l.run(fn)
	}
}

func (l *EventLoop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	if len(l.pending) == 0 {
		l.pending = nil
	}
	return fn, true
}

func (l *EventLoop) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("event loop callback panicked",
				logx.String("panic", fmt.Sprint(rec)),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()
	fn()
}
