package logx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("component", "scheduler"))

	l.Debug("hidden")
	l.Info("task finished", Int("pending", 3), Err(errors.New("boom")), Err(nil))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"task finished"`)
	assert.Contains(t, out, `"component":"scheduler"`)
	assert.Contains(t, out, `"pending":3`)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "logging_test.go")
}

func TestLogger_ZeroValueAndNop(t *testing.T) {
	var zero Logger
	zero.Info("nothing")
	Nop().Error("nothing")
	assert.False(t, Nop().With(Bool("x", true)).Enabled(LevelError))

	var buf bytes.Buffer
	assert.True(t, NewWriter(&buf, "warn").Enabled(LevelError))
	assert.False(t, NewWriter(&buf, "warn").Enabled(LevelInfo))
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sched.log")
	l, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)
	l.Debug("to file")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	_, err = New(Config{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" debug ", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning", zerolog.InfoLevel))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose", zerolog.InfoLevel))
}
