package display

import (
	"time"

	"github.com/samber/lo"
)

// Status is a point-in-time snapshot of a Controller, for logs and monitoring.
type Status struct {
	BatteryLevel float64   `json:"battery_level"`
	Pattern      []int     `json:"pattern"`
	Pins         []int     `json:"pins"`
	OutputsOn    int       `json:"outputs_on"`
	Initialized  bool      `json:"initialized"`
	Warning      bool      `json:"warning_active"`
	Timestamp    time.Time `json:"timestamp"`
}

// Status returns a snapshot of the controller's state.
func (c *Controller) Status() Status {
	return Status{
		BatteryLevel: c.batteryLevel,
		Pattern:      c.Pattern(),
		Pins:         c.Pins(),
		OutputsOn:    lo.Count(c.pattern, 1),
		Initialized:  c.initialized,
		Warning:      c.WarningActive(),
		Timestamp:    c.clk.Now(),
	}
}
