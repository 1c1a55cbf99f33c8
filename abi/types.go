package abi

import "encoding/binary"

// SensorType ordinals.
const (
	SensorTemperature uint16 = 1
	SensorHumidity    uint16 = 2
	SensorPressure    uint16 = 3
	SensorVibration   uint16 = 4
)

func SensorTypeName(t uint16) string {
	switch t {
	case SensorTemperature:
		return "Temperature"
	case SensorHumidity:
		return "Humidity"
	case SensorPressure:
		return "Pressure"
	case SensorVibration:
		return "Vibration"
	default:
		return "Unknown"
	}
}

// Event types delivered through the event callback.
const (
	EventContextCreated   int32 = 1
	EventContextReset     int32 = 2
	EventContextDestroyed int32 = 3
	EventBatchEncoded     int32 = 4
	EventStreamDecoded    int32 = 5
)

// EventCounts is the payload of EventBatchEncoded and EventStreamDecoded:
// record count then byte count, both u32 little-endian.
func EventCounts(records, bytes int) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[:4], uint32(records))
	binary.LittleEndian.PutUint32(b[4:], uint32(bytes))
	return b[:]
}

// ParseEventCounts reverses EventCounts. ok is false for any other payload.
func ParseEventCounts(p []byte) (records, bytes int, ok bool) {
	if len(p) != 8 {
		return 0, 0, false
	}
	return int(binary.LittleEndian.Uint32(p[:4])), int(binary.LittleEndian.Uint32(p[4:])), true
}
