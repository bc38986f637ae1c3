package sched

import "errors"

var (
	// ErrInvalidPriority is returned when a priority cannot be parsed into 1..5.
	ErrInvalidPriority = errors.New("sched: invalid priority")

	// ErrNotExecuting is returned by operations that must run inside a task callback.
	ErrNotExecuting = errors.New("sched: not inside an executing task")

	// ErrLoopStopped is returned when work is submitted to a stopped event loop.
	ErrLoopStopped = errors.New("sched: event loop stopped")

	// ErrClosed is returned when a workload is submitted to a closed scheduler.
	ErrClosed = errors.New("sched: scheduler closed")
)
