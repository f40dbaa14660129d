package display

import (
	"fmt"

	"github.com/pkg/errors"
)

// A ValidationError reports a bad constructor argument or mapping range.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid display configuration: " + e.Msg
	}
	return fmt.Sprintf("invalid display configuration: %s: %s", e.Field, e.Msg)
}

func newValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// A DeviceError reports that the output device failed or is no longer held.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return "indicator device: " + e.Op
	}
	return fmt.Sprintf("indicator device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

var errNotInitialized = errors.New("device not initialized")

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsDeviceError reports whether err is or wraps a *DeviceError.
func IsDeviceError(err error) bool {
	var target *DeviceError
	return errors.As(err, &target)
}
