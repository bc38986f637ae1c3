package job

import (
	"time"

	"slicesched/internal/sched"
)

// Busy returns a callback that occupies d of scheduler time. With a
// TickClock the time is simulated by advancing the clock; with a nil clock
// the callback really sleeps.
func Busy(clock *sched.TickClock, d time.Duration) func() {
	return func() {
		if d <= 0 {
			return
		}
		if clock != nil {
			clock.Advance(d)
			return
		}
		time.Sleep(d)
	}
}
