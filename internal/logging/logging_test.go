package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_CallSiteOverridesStatic(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf), Fields{"component": "resolver", "country": "fr"})

	l.Info("searching", Fields{"country": "be", "companyName": "ACME"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "resolver", lines[0]["component"])
	assert.Equal(t, "be", lines[0]["country"])
	assert.Equal(t, "ACME", lines[0]["companyName"])
	assert.Equal(t, "searching", lines[0]["message"])
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(zerolog.New(&buf), Fields{"component": "aggregator"})
	child := parent.With(Fields{"companyId": "552100554", "component": "facet"})

	parent.Info("parent", nil)
	child.Warn("child", nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "aggregator", lines[0]["component"])
	assert.NotContains(t, lines[0], "companyId")
	assert.Equal(t, "facet", lines[1]["component"])
	assert.Equal(t, "552100554", lines[1]["companyId"])
	assert.Equal(t, "warn", lines[1]["level"])
}

func TestLogger_ErrorCarriesErr(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf), nil)

	l.Error(errors.New("boom"), "save failed", Fields{"submissionId": "s1"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "s1", lines[0]["submissionId"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Options{Level: "warn", Output: &buf, Service: "companywatch"})

	zl.Info().Msg("dropped")
	zl.Warn().Msg("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["message"])
	assert.Equal(t, "companywatch", lines[0]["service"])
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	zl := New(Options{Level: "chatty", Output: &buf})

	zl.Debug().Msg("dropped")
	zl.Info().Msg("kept")

	assert.Len(t, decodeLines(t, &buf), 1)
}
