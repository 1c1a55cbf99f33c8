package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang-module/carbon/v2"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/codec"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

// Timestamps at or above this are taken as milliseconds, below it as
// seconds (1e11 s is the year 5138).
const millisThreshold = 100_000_000_000

func timeOf(ts uint64) carbon.Carbon {
	if ts >= millisThreshold {
		return carbon.CreateFromTimestampMilli(int64(ts), carbon.UTC)
	}
	return carbon.CreateFromTimestamp(int64(ts), carbon.UTC)
}

func sensorTypeLabel(t uint16) string {
	if name := abi.SensorTypeName(t); name != "Unknown" {
		return name
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// textLine renders one reading as a single line.
func textLine(s sensor.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s=%g%s", timeOf(s.Timestamp).ToDateTimeString(), s.SensorID,
		sensorTypeLabel(s.SensorType), s.Value, s.Unit)
	if s.Location != "" {
		fmt.Fprintf(&b, " @%s", s.Location)
	}
	for _, p := range s.Metadata {
		fmt.Fprintf(&b, " %s=%q", p.Key, p.Value)
	}
	return b.String()
}

// writer formats decoded snapshots. Text formats are written one per line;
// binary formats one hex string per line.
type writer struct {
	format string
	codec  codec.Codec[sensor.Snapshot]
	binary bool
}

func newWriter(format string) (*writer, error) {
	format = strings.ToLower(format)
	if format == "text" {
		return &writer{format: format}, nil
	}
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	return &writer{format: format, codec: c, binary: format != "json"}, nil
}

func (w *writer) line(s sensor.Snapshot) (string, error) {
	if w.codec == nil {
		return textLine(s), nil
	}
	b, err := w.codec.Encode(s)
	if err != nil {
		return "", err
	}
	if w.binary {
		return hex.EncodeToString(b), nil
	}
	return string(b), nil
}

func (w *writer) write(out io.Writer, ss []sensor.Snapshot) error {
	for _, s := range ss {
		ln, err := w.line(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, ln); err != nil {
			return err
		}
	}
	return nil
}
