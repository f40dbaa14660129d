// Package simulator drains a battery level at random intervals, standing in
// for a real fuel gauge.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/batterybar/logging"
)

// A LevelSetter accepts new battery levels. *display.Controller is one.
type LevelSetter interface {
	SetBatteryLevel(level float64) (float64, error)
}

// A Simulator repeatedly lowers its level by a random amount and pushes it to
// a LevelSetter, holding a shared lock around every update.
type Simulator struct {
	target LevelSetter
	mu     sync.Locker
	conf   Config
	rng    *rand.Rand

	level *atomic.Float64
	ticks *atomic.Int64

	clk    clock.Clock
	logger logging.Logger
}

// New returns a Simulator that writes to target while holding mu. A nil clk
// uses the wall clock.
func New(target LevelSetter, mu sync.Locker, conf Config, clk clock.Clock, logger logging.Logger) (*Simulator, error) {
	if err := conf.Validate(""); err != nil {
		return nil, errors.Wrap(err, "invalid simulator configuration")
	}
	if target == nil || mu == nil {
		return nil, errors.New("simulator needs a target and a lock")
	}
	if clk == nil {
		clk = clock.New()
	}

	seed := conf.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	//nolint:gosec
	rng := rand.New(rand.NewSource(seed))

	return &Simulator{
		target: target,
		mu:     mu,
		conf:   conf,
		rng:    rng,
		level:  atomic.NewFloat64(conf.StartLevel),
		ticks:  atomic.NewInt64(0),
		clk:    clk,
		logger: logger,
	}, nil
}

// Level returns the simulator's current value.
func (s *Simulator) Level() float64 {
	return s.level.Load()
}

// Ticks returns how many updates have been pushed to the target.
func (s *Simulator) Ticks() int {
	return int(s.ticks.Load())
}

// Run discharges until running is cleared or the level reaches 0. The flag is
// only checked between iterations, so an iteration in progress always
// completes, sleep included. If the target fails, Run logs it and returns the
// error without retrying.
func (s *Simulator) Run(running *atomic.Bool) error {
	s.logger.Infow("battery simulator started", "level", s.Level())
	for running.Load() && s.Level() > 0 {
		interval := s.nextInterval()
		decrement := s.nextDecrement()

		level, err := s.step(decrement)
		if err != nil {
			s.logger.Errorw("error in battery simulator, stopping", "error", err)
			return errors.Wrap(err, "battery simulator stopped")
		}
		s.logger.Infow("battery discharged",
			"level", level, "decrement", decrement, "next_in", interval)

		s.clk.Sleep(interval)
	}
	s.logger.Infow("battery simulator stopped", "level", s.Level(), "ticks", s.Ticks())
	return nil
}

func (s *Simulator) step(decrement int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := math.Max(0, s.Level()-float64(decrement))
	if _, err := s.target.SetBatteryLevel(next); err != nil {
		return 0, err
	}
	s.level.Store(next)
	s.ticks.Inc()
	return next, nil
}

func (s *Simulator) nextInterval() time.Duration {
	spread := int64(s.conf.MaxInterval - s.conf.MinInterval)
	if spread == math.MaxInt64 {
		// Int63 already spans [0, MaxInt64].
		return s.conf.MinInterval + time.Duration(s.rng.Int63())
	}
	return s.conf.MinInterval + time.Duration(s.rng.Int63n(spread+1))
}

func (s *Simulator) nextDecrement() int {
	return s.conf.MinDecrement + s.rng.Intn(s.conf.MaxDecrement-s.conf.MinDecrement+1)
}
