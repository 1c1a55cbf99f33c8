package journal

import "fmt"

// InvalidateError reports which half of an invalidation failed.
type InvalidateError struct {
	SensorID string
	BumpErr  error
	DelErr   error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("journal: invalidate %q: bump=%v; delete=%v", e.SensorID, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("journal: invalidate %q: generation bump: %v", e.SensorID, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("journal: invalidate %q: delete: %v", e.SensorID, e.DelErr)
	default:
		return fmt.Sprintf("journal: invalidate %q", e.SensorID)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
