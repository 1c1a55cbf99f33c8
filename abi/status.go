package abi

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// Status is the result code returned across the boundary. 0 is success,
// negative values are failures.
type Status int32

const (
	StatusOK             Status = 0
	StatusNullCtx        Status = -1
	StatusNullData       Status = -2
	StatusInvalidLength  Status = -3
	StatusDecodeFailed   Status = -4
	StatusEncodeFailed   Status = -5
	StatusBufferTooSmall Status = -6
	StatusCanceled       Status = -7
	StatusAllocFailed    Status = -8
	StatusNotImplemented Status = -99
)

// Class markers. Packages that produce errors mark them with one of these
// (errors.Mark) so FromError can classify without importing them.
var (
	ErrNullCtx        = errors.New("bebop: null context")
	ErrNullData       = errors.New("bebop: null data")
	ErrInvalidLength  = errors.New("bebop: invalid length")
	ErrDecodeFailed   = errors.New("bebop: decode failed")
	ErrEncodeFailed   = errors.New("bebop: encode failed")
	ErrBufferTooSmall = errors.New("bebop: buffer too small")
	ErrCanceled       = errors.New("bebop: canceled")
	ErrAllocFailed    = errors.New("bebop: allocation failed")
	ErrNotImplemented = errors.New("bebop: not implemented")
)

var classes = []struct {
	mark error
	st   Status
}{
	{ErrNullCtx, StatusNullCtx},
	{ErrNullData, StatusNullData},
	{ErrInvalidLength, StatusInvalidLength},
	{ErrBufferTooSmall, StatusBufferTooSmall},
	{ErrCanceled, StatusCanceled},
	{ErrAllocFailed, StatusAllocFailed},
	{ErrEncodeFailed, StatusEncodeFailed},
	{ErrNotImplemented, StatusNotImplemented},
	{ErrDecodeFailed, StatusDecodeFailed},
}

// FromError maps an error to its status. Unclassified errors map to
// StatusDecodeFailed; nil maps to StatusOK.
func FromError(err error) Status {
	if err == nil {
		return StatusOK
	}
	for _, c := range classes {
		if errors.Is(err, c.mark) {
			return c.st
		}
	}
	return StatusDecodeFailed
}

// Err returns the class marker for s, or nil for StatusOK.
func (s Status) Err() error {
	for _, c := range classes {
		if c.st == s {
			return c.mark
		}
	}
	if s == StatusOK {
		return nil
	}
	return ErrDecodeFailed
}

func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "BEBOP_OK"
	case StatusNullCtx:
		return "BEBOP_ERR_NULL_CTX"
	case StatusNullData:
		return "BEBOP_ERR_NULL_DATA"
	case StatusInvalidLength:
		return "BEBOP_ERR_INVALID_LENGTH"
	case StatusDecodeFailed:
		return "BEBOP_ERR_DECODE_FAILED"
	case StatusEncodeFailed:
		return "BEBOP_ERR_ENCODE_FAILED"
	case StatusBufferTooSmall:
		return "BEBOP_ERR_BUFFER_TOO_SMALL"
	case StatusCanceled:
		return "BEBOP_ERR_CANCELED"
	case StatusAllocFailed:
		return "BEBOP_ERR_ALLOC_FAILED"
	case StatusNotImplemented:
		return "BEBOP_ERR_NOT_IMPLEMENTED"
	default:
		return "BEBOP_STATUS(" + strconv.Itoa(int(s)) + ")"
	}
}

// Message is the static description used when no detailed diagnostic is
// available (for example when the arena cannot hold one).
func (s Status) Message() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNullCtx:
		return "null context"
	case StatusNullData:
		return "null or empty input"
	case StatusInvalidLength:
		return "invalid length"
	case StatusDecodeFailed:
		return "decode failed"
	case StatusEncodeFailed:
		return "encode failed"
	case StatusBufferTooSmall:
		return "output buffer too small"
	case StatusCanceled:
		return "canceled"
	case StatusAllocFailed:
		return "allocation failed"
	case StatusNotImplemented:
		return "not implemented"
	default:
		return "unknown status"
	}
}

// Statuses lists every defined code in declaration order.
func Statuses() []Status {
	return []Status{
		StatusOK, StatusNullCtx, StatusNullData, StatusInvalidLength,
		StatusDecodeFailed, StatusEncodeFailed, StatusBufferTooSmall,
		StatusCanceled, StatusAllocFailed, StatusNotImplemented,
	}
}
