package codec

import (
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
)

var ErrTooLarge = errors.Mark(errors.New("codec: payload too large"), abi.ErrInvalidLength)

// Limit wraps a codec and refuses to decode payloads longer than MaxDecode
// bytes. MaxDecode <= 0 disables the check. Encode is forwarded unchanged.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, errors.Wrapf(ErrTooLarge, "%d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
