//go:build !linux

package gpiochip

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

// A Device is only functional on Linux. This one exists so that the backend
// registers everywhere and fails with a clear message.
type Device struct{}

// NewDevice always fails on this platform.
func NewDevice(conf indicator.BackendConfig, logger logging.Logger) (*Device, error) {
	return nil, errors.New("the gpiochip backend is only supported on linux")
}

// Configure is never reached on this platform.
func (d *Device) Configure(ctx context.Context, pins []int) error {
	return errors.New("unsupported platform")
}

// SetOutput is never reached on this platform.
func (d *Device) SetOutput(ctx context.Context, pin int, on bool) error {
	return errors.New("unsupported platform")
}

// Release is a no-op.
func (d *Device) Release(ctx context.Context) {}
