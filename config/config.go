// Package config defines the batterybar configuration file and how it is read.
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/batterybar/components/indicator/console"
	"go.viam.com/batterybar/components/indicator/gpiochip"
	"go.viam.com/batterybar/coordinator"
	"go.viam.com/batterybar/display"
	"go.viam.com/batterybar/logging"
	"go.viam.com/batterybar/simulator"
)

// DefaultPins are the outputs used when a config does not name any.
var DefaultPins = []int{4, 5, 6, 12, 13, 16, 17, 18, 19, 20}

// Config is the top level configuration of a batterybar run.
type Config struct {
	Backend   string `json:"backend"`
	ActiveLow bool   `json:"active_low"`
	GPIOChip  string `json:"gpio_chip"`

	BatteryLevel float64 `json:"battery_level"`
	Pins         []int   `json:"pins"`
	// Pattern defaults to all zeros, one per pin.
	Pattern []int `json:"pattern"`

	TickInterval time.Duration    `json:"tick_interval"`
	JoinTimeout  time.Duration    `json:"join_timeout"`
	Simulator    simulator.Config `json:"simulator"`

	LogLevel string `json:"log_level"`
	// LogFile, if set, also receives every log line as JSON, with rotation.
	LogFile string `json:"log_file"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	conf := baseConfig()
	conf.applyDefaults()
	return conf
}

// baseConfig holds the scalar defaults. Slices are filled in after decoding
// so that a file's list replaces the default rather than merging into it.
func baseConfig() *Config {
	return &Config{
		Backend:      console.BackendName,
		GPIOChip:     gpiochip.DefaultChip,
		BatteryLevel: display.MaxBattery,
		TickInterval: coordinator.DefaultTickInterval,
		JoinTimeout:  coordinator.DefaultJoinTimeout,
		Simulator:    simulator.DefaultConfig(),
		LogLevel:     logging.INFO.String(),
	}
}

func (conf *Config) applyDefaults() {
	if conf.Pins == nil {
		conf.Pins = append([]int(nil), DefaultPins...)
	}
	if conf.Pattern == nil {
		conf.Pattern = make([]int, len(conf.Pins))
	}
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	field := func(name string) string {
		if path == "" {
			return name
		}
		return fmt.Sprintf("%s.%s", path, name)
	}

	if conf.Backend == "" {
		return errors.Errorf("%s: must not be empty", field("backend"))
	}
	if _, err := logging.LevelFromString(conf.LogLevel); err != nil {
		return errors.Wrap(err, field("log_level"))
	}
	coord := conf.Coordinator()
	return coord.Validate(path)
}

// Coordinator returns the run settings described by the config.
func (conf *Config) Coordinator() coordinator.Config {
	return coordinator.Config{
		Display: display.Config{
			BatteryLevel: conf.BatteryLevel,
			Pattern:      conf.Pattern,
			Pins:         conf.Pins,
		},
		Simulator:    conf.Simulator,
		TickInterval: conf.TickInterval,
		JoinTimeout:  conf.JoinTimeout,
	}
}

// Level returns the parsed log level, falling back to info.
func (conf *Config) Level() logging.Level {
	level, err := logging.LevelFromString(conf.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
