package cursor

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/inceptionview/lookup"
)

var (
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrHandleInvalid           = errors.New("handle is no longer valid")
	ErrUnsupportedForArguments = errors.New("operation not supported for these arguments")
	ErrTooManyConflicts        = errors.New("too many conflicts")
	ErrCapabilityUnavailable   = errors.New("capability not available")
)

// BackendError carries a native status the engine has no sentinel for.
type BackendError struct {
	Op   string
	Code lookup.Status
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// translate maps a backend error to the engine error model.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch code := lookup.Code(err); code {
	case lookup.StatusOK:
		return fmt.Errorf("%s: %w", op, err)
	case lookup.StatusInvalidHandle:
		return fmt.Errorf("%s: %w", op, ErrHandleInvalid)
	default:
		return &BackendError{Op: op, Code: code, Err: err}
	}
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
