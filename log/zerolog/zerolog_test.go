package zerolog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi"
)

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("dropped", nil)
	assert.Zero(t, buf.Len())

	l.Error("decode failed", bebopffi.Fields{"status": "BEBOP_ERR_NULL_DATA"})
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "bebop", line["component"])
	assert.Equal(t, "BEBOP_ERR_NULL_DATA", line["status"])
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, zerolog.DebugLevel).Info("context created", bebopffi.Fields{"chunk": 65536})
	assert.True(t, strings.Contains(buf.String(), "context created"), buf.String())
	assert.True(t, strings.Contains(buf.String(), "chunk="), buf.String())
}
