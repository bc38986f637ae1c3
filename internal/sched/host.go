package sched

// Host re-enters the scheduler on the platform's asynchronous callback
// mechanism. Every function passed to Post must run later, in order, on
// the single execution context that owns the Scheduler. Post is called
// from that context itself and must never block.
type Host interface {
	Post(fn func())
}

// ManualHost is a Host whose turns are driven explicitly by the caller.
// It is not safe for concurrent use; the goroutine calling RunNext is the
// scheduler's execution context.
type ManualHost struct {
	queue []func()
	turns int
}

func NewManualHost() *ManualHost { return &ManualHost{} }

func (h *ManualHost) Post(fn func()) {
	h.queue = append(h.queue, fn)
}

// Pending returns the number of posted callbacks not yet run.
func (h *ManualHost) Pending() int { return len(h.queue) }

// Turns returns the number of callbacks run so far.
func (h *ManualHost) Turns() int { return h.turns }

// RunNext runs the oldest posted callback. It reports false when nothing
// was posted.
func (h *ManualHost) RunNext() bool {
	if len(h.queue) == 0 {
		return false
	}
	fn := h.queue[0]
	h.queue[0] = nil
	h.queue = h.queue[1:]
	h.turns++
	fn()
	return true
}

// Drain runs posted callbacks, including ones posted while draining, until
// none remain, and returns how many ran.
func (h *ManualHost) Drain() int {
	n := 0
	for h.RunNext() {
		n++
	}
	return n
}
