package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi"
)

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped", bebopffi.Fields{"x": 1})
	assert.Zero(t, buf.Len())

	l.Warn("journal put failed", bebopffi.Fields{"sensor_id": "t-1", "records": 3})
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "journal put failed", line["msg"])
	group, ok := line["bebop"].(map[string]any)
	require.True(t, ok, "fields are grouped under bebop: %v", line)
	assert.Equal(t, "t-1", group["sensor_id"])
	assert.Equal(t, float64(3), group["records"])
}
