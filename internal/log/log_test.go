package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "WARNING", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryAndFields(t *testing.T) {
	var buf syncBuffer
	InitWithWriter(&buf, zapcore.DebugLevel)
	t.Cleanup(Reset)

	Debug(CatStack, "Reordering commit", "actor", "c1")
	ErrorErr(CatDB, "Failed to save", errors.New("disk full"), "id", 7)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 2)
	require.Equal(t, "stack", lines[0]["cat"])
	require.Equal(t, "c1", lines[0]["actor"])
	require.Equal(t, "db", lines[1]["cat"])
	require.Equal(t, "disk full", lines[1]["error"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf syncBuffer
	InitWithWriter(&buf, zapcore.WarnLevel)
	t.Cleanup(Reset)

	Debug(CatCache, "hidden")
	Info(CatCache, "hidden too")
	Warn(CatCache, "shown")

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	require.Equal(t, "shown", lines[0]["msg"])
}

func TestSafeGoRecoversPanic(t *testing.T) {
	var buf syncBuffer
	InitWithWriter(&buf, zapcore.DebugLevel)
	t.Cleanup(Reset)

	done := make(chan struct{})
	SafeGo("boom", func() {
		defer close(done)
		panic("kaboom")
	})
	<-done

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "kaboom")
	}, time.Second, 10*time.Millisecond)
}
