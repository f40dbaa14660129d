package display

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"go.viam.com/batterybar/components/indicator"
)

// Battery bounds and the level at or below which the low-battery warning fires.
const (
	MinBattery          = 0.0
	MaxBattery          = 100.0
	LowBatteryThreshold = 15.0
)

// A Config describes the initial state of a display.
type Config struct {
	// BatteryLevel is the starting level, in percent.
	BatteryLevel float64 `json:"battery_level"`
	// Pattern holds one 0/1 flag per pin; 1 is lit.
	Pattern []int `json:"pattern"`
	// Pins are the output identifiers, in fill order.
	Pins []int `json:"pins"`
}

// Validate ensures all parts of the config are valid. Field names in the
// returned error are prefixed with path.
func (conf *Config) Validate(path string) error {
	field := func(name string) string {
		if path == "" {
			return name
		}
		return fmt.Sprintf("%s.%s", path, name)
	}

	if math.IsNaN(conf.BatteryLevel) || conf.BatteryLevel < MinBattery || conf.BatteryLevel > MaxBattery {
		return newValidationError(field("battery_level"),
			"battery level must be between %v and %v, got %v", MinBattery, MaxBattery, conf.BatteryLevel)
	}
	if len(conf.Pattern) != len(conf.Pins) {
		return newValidationError(field("pattern"),
			"pattern and pins must have the same length (%d != %d)", len(conf.Pattern), len(conf.Pins))
	}
	if len(conf.Pins) > indicator.MaxOutputs {
		return newValidationError(field("pins"), "maximum %d outputs supported, got %d", indicator.MaxOutputs, len(conf.Pins))
	}
	for idx, pin := range conf.Pins {
		if !indicator.IsValidPin(pin) {
			return newValidationError(fmt.Sprintf("%s.%d", field("pins"), idx),
				"invalid GPIO pin %d, valid pins: %v", pin, indicator.ValidPins)
		}
	}
	if dups := lo.FindDuplicates(conf.Pins); len(dups) != 0 {
		return newValidationError(field("pins"), "duplicate GPIO pins not allowed: %v", dups)
	}
	for idx, flag := range conf.Pattern {
		if flag != 0 && flag != 1 {
			return newValidationError(fmt.Sprintf("%s.%d", field("pattern"), idx), "pattern flags must be 0 or 1, got %d", flag)
		}
	}
	return nil
}
