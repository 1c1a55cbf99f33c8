// Package wire implements the low-level byte handling shared by the record
// codecs: a bounds-checked cursor over tagged messages, a size-checked
// writer over caller buffers, and the framing used for journal entries.
//
// Message layout:
//
//	tag(u8) payload ... tag(u8) payload ... 0x00
//
// All integers are little-endian. Variable-width payloads carry a u32 length
// prefix; fixed-width payloads have the width implied by the field type.
package wire
