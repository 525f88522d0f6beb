package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestModuleAndLines(t *testing.T) {
	var buf bytes.Buffer
	root, err := New(&buf, "info", false)
	require.NoError(t, err)

	lines := NewLines(Module(root, "echo"), zerolog.InfoLevel)
	lines.WriteLineString("echo armed")
	lines.WriteLineBytes([]byte("RX: 0x41 'A'"))

	events := decode(t, &buf)
	require.Len(t, events, 2)
	require.Equal(t, "echo", events[0][LogKey.Module])
	require.Equal(t, "echo armed", events[0][zerolog.MessageFieldName])
	require.Equal(t, "RX: 0x41 'A'", events[1][zerolog.MessageFieldName])
	require.Equal(t, "info", events[1][zerolog.LevelFieldName])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	root, err := New(&buf, "warn", false)
	require.NoError(t, err)

	NewLines(root, zerolog.InfoLevel).WriteLineString("dropped")
	NewLines(root, zerolog.ErrorLevel).WriteLineString("kept")

	events := decode(t, &buf)
	require.Len(t, events, 1)
	require.Equal(t, "kept", events[0][zerolog.MessageFieldName])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, "loud", false)
	require.Error(t, err)
}

func TestNilLinesIsNoop(t *testing.T) {
	var s *Lines
	s.WriteLineString("x")
}
