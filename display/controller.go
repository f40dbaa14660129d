// Package display maps a battery level onto a bar of indicator outputs and
// overlays a short, non-blocking flash when the level drops below the low
// threshold.
//
// A Controller does no locking of its own. Callers that share one between
// goroutines must hold a single lock around every call, and around any
// sequence of calls that must observe the same state.
package display

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
	"go.viam.com/batterybar/utils"
)

// A Controller owns the battery level, the derived pattern, the warning
// overlay and the output device.
type Controller struct {
	dev  indicator.Device
	pins []int

	batteryLevel float64
	pattern      []int
	initialized  bool
	warning      warningState

	clk    clock.Clock
	logger logging.Logger
}

// New validates conf and configures dev with every output unlit. If the
// device cannot be configured it is released again and a *DeviceError is
// returned. A nil clk uses the wall clock.
func New(
	ctx context.Context,
	dev indicator.Device,
	conf Config,
	clk clock.Clock,
	logger logging.Logger,
) (*Controller, error) {
	if err := conf.Validate(""); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	c := &Controller{
		dev:          dev,
		pins:         append([]int(nil), conf.Pins...),
		batteryLevel: conf.BatteryLevel,
		pattern:      append(make([]int, 0, len(conf.Pattern)), conf.Pattern...),
		warning:      idle{},
		clk:          clk,
		logger:       logger,
	}

	guard := utils.NewGuard(func() { dev.Release(ctx) })
	defer guard.OnFail()

	if err := dev.Configure(ctx, c.pins); err != nil {
		logger.Errorw("failed to configure outputs", "pins", c.pins, "error", err)
		return nil, &DeviceError{Op: "configure", Err: err}
	}
	c.initialized = true
	guard.Success()

	logger.Infow("display initialized", "outputs", len(c.pins), "pins", c.pins)
	return c, nil
}

// With constructs a Controller, passes it to fn and closes it when fn
// returns or panics.
func With(
	ctx context.Context,
	dev indicator.Device,
	conf Config,
	clk clock.Clock,
	logger logging.Logger,
	fn func(*Controller) error,
) error {
	c, err := New(ctx, dev, conf, clk, logger)
	if err != nil {
		return err
	}
	defer c.Close(ctx)
	return fn(c)
}

// BatteryLevel returns the stored level.
func (c *Controller) BatteryLevel() float64 {
	return c.batteryLevel
}

// Pattern returns a copy of the current pattern.
func (c *Controller) Pattern() []int {
	return append([]int(nil), c.pattern...)
}

// Pins returns a copy of the configured pins.
func (c *Controller) Pins() []int {
	return append([]int(nil), c.pins...)
}

// Initialized reports whether the device is still held.
func (c *Controller) Initialized() bool {
	return c.initialized
}

// SetBatteryLevel clamps level into [0, 100] and stores it. A changed level
// recomputes the pattern, and a drop from above LowBatteryThreshold to at or
// below it starts the warning overlay. NaN is stored as 0. The stored value is
// returned. After Close it fails with a *DeviceError.
func (c *Controller) SetBatteryLevel(level float64) (float64, error) {
	if !c.initialized {
		return c.batteryLevel, &DeviceError{Op: "set battery level", Err: errNotInitialized}
	}

	prev := c.batteryLevel
	next := clampLevel(level)
	if next == prev {
		return prev, nil
	}
	c.batteryLevel = next
	if err := c.CalculatePattern(); err != nil {
		c.batteryLevel = prev
		return prev, errors.Wrap(err, "failed to set battery level")
	}
	c.logger.Infow("battery level updated", "from", prev, "to", next)

	if prev > LowBatteryThreshold && next <= LowBatteryThreshold {
		c.logger.Warnw("battery level critical", "level", next, "threshold", LowBatteryThreshold)
		c.TriggerLowBatteryWarning()
	}
	return next, nil
}

// CalculatePattern recomputes the pattern from the stored level.
func (c *Controller) CalculatePattern() error {
	pattern, err := PatternFor(c.batteryLevel, len(c.pattern))
	if err != nil {
		return errors.Wrap(err, "failed to calculate pattern")
	}
	c.pattern = pattern
	c.logger.Debugw("calculated pattern",
		"enabled", lo.Count(pattern, 1), "outputs", len(pattern), "pattern", pattern)
	return nil
}

// Render advances the warning overlay and, when it is not active, writes the
// pattern to the outputs. It never blocks on the overlay's timing. Every
// output is attempted even if some fail; failures come back as one
// *DeviceError.
func (c *Controller) Render(ctx context.Context) error {
	if !c.initialized {
		return &DeviceError{Op: "render", Err: errNotInitialized}
	}
	if c.advanceWarning(ctx) {
		return nil
	}
	if err := c.writePattern(ctx); err != nil {
		return &DeviceError{Op: "render", Err: err}
	}
	c.logger.Debugw("rendered",
		"battery", c.batteryLevel, "on", lo.Count(c.pattern, 1), "outputs", len(c.pattern), "pattern", c.pattern)
	return nil
}

// Close turns every output off and releases the device. It is safe to call
// more than once; device errors are logged, not returned.
func (c *Controller) Close(ctx context.Context) {
	if !c.initialized {
		c.logger.Debug("cleanup skipped, device not initialized")
		return
	}
	if err := c.writeAll(ctx, false); err != nil {
		c.logger.Errorw("error turning outputs off during cleanup", "error", err)
	}
	c.dev.Release(ctx)
	c.initialized = false
	c.warning = idle{}
	c.logger.Info("display cleanup completed")
}

func (c *Controller) writePattern(ctx context.Context) error {
	var errs error
	for i, pin := range c.pins {
		err := c.dev.SetOutput(ctx, pin, c.pattern[i] == 1)
		errs = multierr.Append(errs, errors.Wrapf(err, "pin %d", pin))
	}
	return errs
}

func (c *Controller) writeAll(ctx context.Context, on bool) error {
	var errs error
	for _, pin := range c.pins {
		errs = multierr.Append(errs, errors.Wrapf(c.dev.SetOutput(ctx, pin, on), "pin %d", pin))
	}
	return errs
}
