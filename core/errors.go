package core

import "github.com/pkg/errors"

// ShutdownError asks the API server to stop gracefully: it is returned when
// a dependency the server cannot work without is gone.
type ShutdownError struct {
	Reason string
	Err    error
}

func NewShutdownError(reason string, err ...error) error {
	se := &ShutdownError{Reason: reason}
	if len(err) > 0 {
		se.Err = err[0]
	}
	return se
}

func (e *ShutdownError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}

// IsShutdown reports whether err, or any error it wraps, is a ShutdownError.
func IsShutdown(err error) bool {
	var se *ShutdownError
	return errors.As(err, &se)
}
