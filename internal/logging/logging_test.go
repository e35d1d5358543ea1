package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONInLocation(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	var buf bytes.Buffer
	l := New(&buf, loc, "info")

	Component(l, "database").WithField("event", "db_migration_start").Info("starting")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "starting", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "database", entry["component"])
	assert.Equal(t, "db_migration_start", entry["event"])

	ts, ok := entry["ts"].(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	require.NoError(t, err)
	_, offset := parsed.Zone()
	assert.Equal(t, 2*60*60, offset)
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l = New(&buf, nil, "not-a-level")
	l.Info("shown")
	assert.NotZero(t, buf.Len())
}
