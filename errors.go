package bebopffi

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
)

var ErrNoJournal = errors.Mark(errors.New("bebop: journal not configured"), abi.ErrNotImplemented)

// Error is returned by the context.Context-taking operations, which report
// through error values rather than bare statuses.
type Error struct {
	Op     string
	Status abi.Status
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bebop: %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("bebop: %s: %s: %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Status: abi.FromError(err), Err: err}
}
