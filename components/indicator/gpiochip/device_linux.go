//go:build linux

package gpiochip

import (
	"context"

	"github.com/mkch/gpio"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

const consumer = "batterybar"

// A Device holds one requested output line per pin. Pin numbers are line
// offsets on the chip.
type Device struct {
	conf   indicator.BackendConfig
	lines  map[int]*gpio.Line
	order  []int
	logger logging.Logger
}

// NewDevice checks that the chip can be opened and returns an unconfigured device.
func NewDevice(conf indicator.BackendConfig, logger logging.Logger) (*Device, error) {
	if conf.Chip == "" {
		conf.Chip = DefaultChip
	}
	chip, err := gpio.OpenChip(conf.Chip)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", conf.Chip)
	}
	goutils.UncheckedError(chip.Close())
	return &Device{conf: conf, lines: map[int]*gpio.Line{}, logger: logger}, nil
}

func (d *Device) value(on bool) byte {
	if d.conf.Level(on) {
		return 1
	}
	return 0
}

// Configure requests every pin as an output line, unlit. On failure the lines
// opened so far are closed again.
func (d *Device) Configure(ctx context.Context, pins []int) (err error) {
	chip, err := gpio.OpenChip(d.conf.Chip)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", d.conf.Chip)
	}
	defer goutils.UncheckedErrorFunc(chip.Close)

	lines := make(map[int]*gpio.Line, len(pins))
	defer func() {
		if err == nil {
			return
		}
		for _, line := range lines {
			goutils.UncheckedError(line.Close())
		}
	}()

	for _, pin := range pins {
		line, err := chip.OpenLine(uint32(pin), d.value(false), gpio.Output, consumer)
		if err != nil {
			return errors.Wrapf(err, "failed to open line %d", pin)
		}
		lines[pin] = line
	}
	d.lines = lines
	d.order = append([]int(nil), pins...)
	return nil
}

// SetOutput drives one line.
func (d *Device) SetOutput(ctx context.Context, pin int, on bool) error {
	line, ok := d.lines[pin]
	if !ok {
		return errors.Errorf("pin %d is not configured", pin)
	}
	return line.SetValue(d.value(on))
}

// Release drives every line unlit and closes it.
func (d *Device) Release(ctx context.Context) {
	var errs error
	for _, pin := range d.order {
		line := d.lines[pin]
		errs = multierr.Combine(errs, line.SetValue(d.value(false)), line.Close())
	}
	if errs != nil {
		d.logger.Errorw("error releasing gpio lines", "chip", d.conf.Chip, "error", errs)
	}
	d.lines = map[int]*gpio.Line{}
	d.order = nil
}
