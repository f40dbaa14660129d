package display

import (
	"context"
	"time"
)

// Timing of the low-battery flash: lit for the first half of each cycle, for
// three cycles.
const (
	FlashCycle    = 100 * time.Millisecond
	FlashDuration = 3 * FlashCycle
)

// warningState is either idle{} or *flashing. No other value is valid.
type warningState interface {
	warningState()
}

type idle struct{}

func (idle) warningState() {}

// flashing is the active overlay. saved is the pattern to restore when it
// ends; lit is the last value written to the outputs.
type flashing struct {
	start time.Time
	saved []int
	lit   bool
}

func (*flashing) warningState() {}

// TriggerLowBatteryWarning starts the flash overlay. It does nothing if the
// device is gone, no outputs are configured, or the overlay is already running.
func (c *Controller) TriggerLowBatteryWarning() {
	if !c.initialized {
		c.logger.Warn("cannot trigger low battery warning, device not initialized")
		return
	}
	if len(c.pins) == 0 {
		c.logger.Warn("cannot trigger low battery warning, no outputs configured")
		return
	}
	if _, ok := c.warning.(*flashing); ok {
		c.logger.Debug("low battery warning already active")
		return
	}

	c.warning = &flashing{
		start: c.clk.Now(),
		saved: append([]int(nil), c.pattern...),
	}
	c.logger.Infow("low battery warning started", "saved_pattern", c.pattern)
}

// WarningActive reports whether the flash overlay currently owns the outputs.
func (c *Controller) WarningActive() bool {
	_, ok := c.warning.(*flashing)
	return ok
}

// advanceWarning steps the overlay for the current time. It returns true if
// the overlay owned the outputs on this tick, including the tick on which it
// ended and restored the saved pattern.
func (c *Controller) advanceWarning(ctx context.Context) bool {
	f, ok := c.warning.(*flashing)
	if !ok {
		return false
	}

	elapsed := c.clk.Since(f.start)
	if elapsed >= FlashDuration {
		c.endWarning(ctx, f)
		return true
	}
	if elapsed < 0 {
		elapsed = 0
	}

	lit := elapsed%FlashCycle < FlashCycle/2
	if lit == f.lit {
		return true
	}
	if err := c.writeAll(ctx, lit); err != nil {
		c.logger.Errorw("error updating warning animation, ending it", "error", err)
		c.endWarning(ctx, f)
		return true
	}
	f.lit = lit
	c.logger.Debugw("warning flash", "lit", lit, "elapsed", elapsed, "cycle", int(elapsed/FlashCycle)+1)
	return true
}

// endWarning returns to idle and puts the saved pattern back on the outputs.
// It never fails: a write error here is logged and the next Render retries.
func (c *Controller) endWarning(ctx context.Context, f *flashing) {
	c.warning = idle{}
	c.pattern = f.saved
	if err := c.writePattern(ctx); err != nil {
		c.logger.Errorw("error restoring pattern after warning", "error", err)
		return
	}
	c.logger.Info("low battery warning completed, normal pattern restored")
}
