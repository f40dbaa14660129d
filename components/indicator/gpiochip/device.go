// Package gpiochip drives indicators through the Linux GPIO character device,
// by way of mkch's gpio package.
package gpiochip

import (
	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

// BackendName is the registry name of the character device backend.
const BackendName = "gpiochip"

// DefaultChip is used when BackendConfig.Chip is empty.
const DefaultChip = "/dev/gpiochip0"

func init() {
	indicator.RegisterBackend(BackendName, func(conf indicator.BackendConfig, logger logging.Logger) (indicator.Device, error) {
		dev, err := NewDevice(conf, logger)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}
