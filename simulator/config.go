package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Defaults for a simulated discharge: from full, losing 1 to 5 percent every
// half second to three seconds.
const (
	DefaultStartLevel   = 100.0
	DefaultMinInterval  = 500 * time.Millisecond
	DefaultMaxInterval  = 3 * time.Second
	DefaultMinDecrement = 1
	DefaultMaxDecrement = 5

	maxLevel = 100
)

// Config controls the simulated discharge.
type Config struct {
	StartLevel   float64       `json:"start_level"`
	MinInterval  time.Duration `json:"min_interval"`
	MaxInterval  time.Duration `json:"max_interval"`
	MinDecrement int           `json:"min_decrement"`
	MaxDecrement int           `json:"max_decrement"`
	// Seed fixes the random sequence. Zero seeds from the clock.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default discharge settings.
func DefaultConfig() Config {
	return Config{
		StartLevel:   DefaultStartLevel,
		MinInterval:  DefaultMinInterval,
		MaxInterval:  DefaultMaxInterval,
		MinDecrement: DefaultMinDecrement,
		MaxDecrement: DefaultMaxDecrement,
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

	if math.IsNaN(conf.StartLevel) || conf.StartLevel < 0 || conf.StartLevel > maxLevel {
		return errors.Errorf("%s: start level must be between 0 and %v, got %v", field("start_level"), maxLevel, conf.StartLevel)
	}
	if conf.MinInterval < 0 {
		return errors.Errorf("%s: interval must not be negative, got %v", field("min_interval"), conf.MinInterval)
	}
	if conf.MaxInterval < conf.MinInterval {
		return errors.Errorf("%s: must be at least %s (%v), got %v",
			field("max_interval"), field("min_interval"), conf.MinInterval, conf.MaxInterval)
	}
	if conf.MinDecrement < 0 {
		return errors.Errorf("%s: decrement must not be negative, got %d", field("min_decrement"), conf.MinDecrement)
	}
	if conf.MaxDecrement < conf.MinDecrement {
		return errors.Errorf("%s: must be at least %s (%d), got %d",
			field("max_decrement"), field("min_decrement"), conf.MinDecrement, conf.MaxDecrement)
	}
	if conf.MaxDecrement > maxLevel {
		return errors.Errorf("%s: decrement must be at most %d, got %d", field("max_decrement"), maxLevel, conf.MaxDecrement)
	}
	return nil
}
