// Package sensor is the record codec for the SensorReading schema.
//
// Wire tags:
//
//	1 timestamp    u64 (unix millis)
//	2 sensor_id    bytes
//	3 sensor_type  u16 enum ordinal
//	4 value        f64
//	5 unit         bytes
//	6 location     bytes
//	7 metadata     u32 count, then (bytes key, bytes value) * count
//	0 end of message
//
// Decoding copies every variable-width payload into an arena.Context, so a
// decoded Reading stays valid exactly as long as that context. Each tag may
// appear at most once; a repeated or unknown tag fails the decode. A failed
// decode leaves the output zeroed except for ErrCode and ErrMessage.
//
// Encoding writes tags 1..6 unconditionally, in declaration order, and tag 7
// only when metadata is non-empty.
package sensor
