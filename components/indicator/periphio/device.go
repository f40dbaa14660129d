// Package periphio drives indicators through periph.io's GPIO registry.
package periphio

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

// BackendName is the registry name of the periph.io device.
const BackendName = "periph"

func init() {
	indicator.RegisterBackend(BackendName, func(conf indicator.BackendConfig, logger logging.Logger) (indicator.Device, error) {
		dev, err := NewDevice(conf, logger)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

var (
	hostInitOnce sync.Once
	errHostInit  error
)

// A Device drives BCM-numbered pins found through gpioreg.
type Device struct {
	conf   indicator.BackendConfig
	pins   map[int]gpio.PinIO
	order  []int
	logger logging.Logger
}

// NewDevice initializes the host drivers and returns an unconfigured device.
func NewDevice(conf indicator.BackendConfig, logger logging.Logger) (*Device, error) {
	hostInitOnce.Do(func() {
		_, errHostInit = host.Init()
	})
	if errHostInit != nil {
		return nil, errors.Wrap(errHostInit, "failed to initialize periph host drivers")
	}
	return &Device{conf: conf, pins: map[int]gpio.PinIO{}, logger: logger}, nil
}

func (d *Device) level(on bool) gpio.Level {
	if d.conf.Level(on) {
		return gpio.High
	}
	return gpio.Low
}

// Configure looks up every pin and drives it unlit. On failure the pins
// already switched to outputs are halted again.
func (d *Device) Configure(ctx context.Context, pins []int) error {
	resolved := make(map[int]gpio.PinIO, len(pins))
	var done []int
	unwind := func(err error) error {
		d.halt(resolved, done)
		return err
	}
	for _, pin := range pins {
		p := gpioreg.ByName(strconv.Itoa(pin))
		if p == nil {
			return unwind(errors.Errorf("no global pin found for %d", pin))
		}
		if err := p.Out(d.level(false)); err != nil {
			return unwind(errors.Wrapf(err, "failed to set pin %d as output", pin))
		}
		resolved[pin] = p
		done = append(done, pin)
	}
	d.pins = resolved
	d.order = append([]int(nil), pins...)
	return nil
}

// SetOutput drives one pin.
func (d *Device) SetOutput(ctx context.Context, pin int, on bool) error {
	p, ok := d.pins[pin]
	if !ok {
		return errors.Errorf("pin %d is not configured", pin)
	}
	return p.Out(d.level(on))
}

// Release drives every pin unlit, then halts it.
func (d *Device) Release(ctx context.Context) {
	d.halt(d.pins, d.order)
	d.pins = map[int]gpio.PinIO{}
	d.order = nil
}

func (d *Device) halt(pins map[int]gpio.PinIO, order []int) {
	var errs error
	for _, pin := range order {
		p := pins[pin]
		errs = multierr.Combine(errs, p.Out(d.level(false)), p.Halt())
	}
	if errs != nil {
		d.logger.Errorw("error releasing gpio pins", "error", errs)
	}
}
