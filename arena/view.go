package arena

import "bytes"

// View is a non-owning reference to bytes held by a Context (or, for
// caller-built records, by the caller). The zero View is absent/empty.
type View []byte

func (v View) Len() int { return len(v) }

// String copies the bytes into a Go string.
func (v View) String() string { return string(v) }

func (v View) Equal(o View) bool { return bytes.Equal(v, o) }

// ViewOf wraps caller-owned bytes without copying.
func ViewOf(b []byte) View { return View(b) }

// ViewString wraps a string's bytes. The caller must not mutate the result.
func ViewString(s string) View {
	if s == "" {
		return nil
	}
	return View(s)
}
