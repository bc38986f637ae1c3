package sched

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slicesched/internal/logx"
)

func TestRecorder_WritesCSVAndCounts(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(logx.NewWriter(&buf, "debug"))
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, rec.EnableCSVLogging(path))

	host := NewManualHost()
	s := New(host, DefaultConfig(), WithClock(NewTickClock()), WithEventSink(rec.Sink))
	scope := s.NewScope()
	s.ScheduleCoalesced(PriorityNormal, func() {}, scope)
	s.ScheduleCoalesced(PriorityNormal, func() {}, scope)
	host.Drain()
	require.NoError(t, rec.Close())

	assert.EqualValues(t, 1, rec.Count(StatusEnqueue))
	assert.EqualValues(t, 1, rec.Count(StatusSuppress))
	assert.EqualValues(t, 1, rec.Count(StatusFinish))
	assert.EqualValues(t, 1, rec.Count(StatusIdle))
	assert.Contains(t, buf.String(), "Suppress")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// header + Enqueue, Suppress, Prepare, Execute, Finish, Idle
	require.Len(t, rows, 7)
	assert.Equal(t, "event", rows[0][2])
	assert.Equal(t, "Enqueued", rows[1][2])
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "false", rows[1][6])
	assert.Equal(t, "Idle", rows[6][2])
}
