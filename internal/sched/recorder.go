package sched

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"slicesched/internal/logx"
)

// Recorder renders status events to a logger and, optionally, a CSV file.
// Its Sink method is an EventSink.
type Recorder struct {
	mu     sync.Mutex
	log    logx.Logger
	counts map[StatusKind]int64

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewRecorder creates a Recorder writing to log.
func NewRecorder(log logx.Logger) *Recorder {
	return &Recorder{
		log:    log,
		counts: make(map[StatusKind]int64),
	}
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before events flow.
func (r *Recorder) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv log %q: %w", path, err)
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"timestamp", "clock_ms", "event", "task_id", "priority", "scope", "clean", "pending"}); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()

	r.mu.Lock()
	r.csvFile = f
	r.csvWriter = w
	r.mu.Unlock()
	return nil
}

// Sink records one event.
func (r *Recorder) Sink(ev StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[ev.Kind]++

	// an auxiliary function to center the event kind in the output
	center := func(str string, width int) string {
		spaces := max((width-len(str))/2, 0)
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", max(width-(spaces+len(str)), 0))
	}

	r.log.Debug(fmt.Sprintf("[%s] task %04d", center(ev.Kind.String(), 10), ev.TaskID),
		logx.Duration("clock", ev.Clock),
		logx.String("priority", ev.Priority.String()),
		logx.Uint64("scope", uint64(ev.Scope)),
		logx.Bool("clean", ev.Clean),
		logx.Int("pending", ev.Pending),
	)

	if r.csvWriter != nil {
		rec := []string{
			ev.Time.Format(time.RFC3339Nano),
			strconv.FormatInt(ev.Clock.Milliseconds(), 10),
			ev.Kind.String(),
			strconv.FormatUint(uint64(ev.TaskID), 10),
			strconv.Itoa(int(ev.Priority)),
			strconv.FormatUint(uint64(ev.Scope), 10),
			strconv.FormatBool(ev.Clean),
			strconv.Itoa(ev.Pending),
		}
		if err := r.csvWriter.Write(rec); err != nil {
			r.log.Warn("csv write failed", logx.Err(err))
		}
		r.csvWriter.Flush()
	}
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind StatusKind) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

// Close flushes and closes the CSV file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.csvFile == nil {
		return nil
	}
	r.csvWriter.Flush()
	err := r.csvWriter.Error()
	if cerr := r.csvFile.Close(); err == nil {
		err = cerr
	}
	r.csvFile = nil
	r.csvWriter = nil
	return err
}
