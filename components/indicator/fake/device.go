// Package fake implements an in-memory indicator device for tests and dry runs.
package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

// BackendName is the registry name of the fake device.
const BackendName = "fake"

func init() {
	indicator.RegisterBackend(BackendName, func(_ indicator.BackendConfig, logger logging.Logger) (indicator.Device, error) {
		return NewDevice(logger), nil
	})
}

// A Write records one SetOutput call that reached the device.
type Write struct {
	Pin int
	On  bool
}

// A Device remembers the last value set on every pin and every write it
// received. Fields ending in Err are returned by the matching method when set.
type Device struct {
	mu sync.Mutex

	ConfigureErr error
	// SetErr, if set, is consulted on every SetOutput. A non-nil result fails
	// the write and leaves the pin unchanged.
	SetErr func(pin int, on bool) error

	ConfigureCount int
	ReleaseCount   int

	configured []int
	states     map[int]bool
	writes     []Write

	logger logging.Logger
}

// NewDevice returns a new fake device.
func NewDevice(logger logging.Logger) *Device {
	return &Device{states: map[int]bool{}, logger: logger}
}

// Configure records the pins and sets them all unlit.
func (d *Device) Configure(ctx context.Context, pins []int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ConfigureCount++
	if d.ConfigureErr != nil {
		return d.ConfigureErr
	}
	d.configured = append([]int(nil), pins...)
	d.states = make(map[int]bool, len(pins))
	for _, pin := range pins {
		d.states[pin] = false
	}
	return nil
}

// SetOutput sets the state of a configured pin.
func (d *Device) SetOutput(ctx context.Context, pin int, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.states[pin]; !ok {
		return errors.Errorf("pin %d is not configured", pin)
	}
	if d.SetErr != nil {
		if err := d.SetErr(pin, on); err != nil {
			return err
		}
	}
	d.states[pin] = on
	d.writes = append(d.writes, Write{Pin: pin, On: on})
	return nil
}

// Release forgets the configured pins.
func (d *Device) Release(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ReleaseCount++
	d.configured = nil
	d.states = map[int]bool{}
	d.logger.Debug("released")
}

// SetFailure replaces SetErr while holding the device lock, so it is safe to
// call while another goroutine is writing.
func (d *Device) SetFailure(fn func(pin int, on bool) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SetErr = fn
}

// Configured returns the pins passed to the last successful Configure.
func (d *Device) Configured() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.configured...)
}

// States returns the state of every configured pin, in configuration order.
func (d *Device) States() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	states := make([]bool, 0, len(d.configured))
	for _, pin := range d.configured {
		states = append(states, d.states[pin])
	}
	return states
}

// Writes returns every successful write since the last ResetWrites.
func (d *Device) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// ResetWrites clears the write history.
func (d *Device) ResetWrites() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = nil
}
