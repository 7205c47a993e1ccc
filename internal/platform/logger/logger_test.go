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

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel(" warning "))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("verbose"))
}

func TestLogger_TextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Warn, Format: FormatText, App: "dash", Output: &buf})

	l.Info("dropped", nil)
	l.Warn("kept", map[string]any{"b": 2, "a": 1})

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "a=1 app=dash b=2 level=warn msg=kept")
}

func TestLogger_JSONWithFieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, Output: &buf}).
		With(map[string]any{"submission_id": "abc", "": "ignored"})

	l.Error("notify failed", map[string]any{"error": errors.New("boom")})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "abc", entry["submission_id"])
	assert.Equal(t, "boom", entry["error"])
	_, hasEmpty := entry[""]
	assert.False(t, hasEmpty)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing", map[string]any{"x": 1})
	assert.Same(t, l, l.With(nil))
}
