// Package indicator defines the output device that renders a row of indicators
// and the registry of backends that implement it.
package indicator

import (
	"context"
	"io"

	"github.com/samber/lo"
)

// MaxOutputs is the largest number of indicators a single device drives.
const MaxOutputs = 10

// ValidPins lists the BCM-numbered GPIO lines an indicator may be wired to.
var ValidPins = []int{2, 3, 4, 5, 6, 12, 13, 16, 17, 18, 19, 20, 21, 26}

// IsValidPin reports whether pin is in ValidPins.
func IsValidPin(pin int) bool {
	return lo.Contains(ValidPins, pin)
}

// A Device drives a set of indicator outputs.
//
// Polarity: on == true always means "indicator lit". Backends translate that
// into an electrical level (see BackendConfig.ActiveLow), so callers never
// reason about wiring. A display pattern value of 1 is rendered as on.
//
// A Device is owned by exactly one caller and is not safe for concurrent use.
type Device interface {
	// Configure puts every pin into output mode, unlit.
	Configure(ctx context.Context, pins []int) error

	// SetOutput lights or darkens one configured pin.
	SetOutput(ctx context.Context, pin int, on bool) error

	// Release frees the underlying hardware. It never fails; backends log
	// whatever goes wrong.
	Release(ctx context.Context)
}

// BackendConfig carries the settings a backend constructor may need.
type BackendConfig struct {
	// ActiveLow inverts the electrical level: lit means low.
	ActiveLow bool
	// Chip is the GPIO character device path used by the gpiochip backend.
	Chip string
	// Out is where the console backend draws. Nil means stdout.
	Out io.Writer
}

// Level returns the electrical level that represents on for this config.
func (conf BackendConfig) Level(on bool) bool {
	return on != conf.ActiveLow
}
