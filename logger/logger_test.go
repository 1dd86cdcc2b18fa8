package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(WARN)

	l.Info("dropped")
	l.Warn("kept")
	l.Error("failed", errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["message"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestWithFieldsSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	child := l.WithField("component", "router").WithFields(map[string]interface{}{"persona": "InsightBot"})
	child.Infof("routed %d", 1)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "router", entries[0]["component"])
	assert.Equal(t, "InsightBot", entries[0]["persona"])
	assert.Equal(t, "routed 1", entries[0]["message"])

	// parent level changes apply to children
	l.SetLevel(ERROR)
	child.Info("suppressed")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		" fatal ": FATAL,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	lvl, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, INFO, lvl)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DEBUG.String())
	assert.Equal(t, "FATAL", FATAL.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
