package export

import (
	"errors"
	"fmt"
)

var (
	ErrTransport         = errors.New("export transport failed")
	ErrPersistence       = errors.New("export persistence failed")
	ErrUnsupportedExport = errors.New("unsupported export")
)

// TransportError reports a failure to deliver an envelope to a remote
// endpoint: connection errors, non-2xx replies, undecodable replies and
// broker NACKs. StatusCode is zero when no HTTP response was received.
type TransportError struct {
	Target     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("export to %s: status %d: %v", e.Target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("export to %s: %v", e.Target, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write to a database, a file or an object
// store. Op names the step that failed.
type PersistenceError struct {
	Target string
	Op     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedExport, fmt.Sprintf(format, args...))
}
