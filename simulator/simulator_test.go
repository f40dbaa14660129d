package simulator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/test"

	"go.viam.com/batterybar/components/indicator/fake"
	"go.viam.com/batterybar/display"
	"go.viam.com/batterybar/logging"
)

// trackingLock records whether it is held so the target can check it.
type trackingLock struct {
	mu   sync.Mutex
	held atomic.Bool
}

func (l *trackingLock) Lock() {
	l.mu.Lock()
	l.held.Store(true)
}

func (l *trackingLock) Unlock() {
	l.held.Store(false)
	l.mu.Unlock()
}

type recorder struct {
	lock   *trackingLock
	failOn int
	err    error

	mu       sync.Mutex
	levels   []float64
	unlocked int
}

func (r *recorder) SetBatteryLevel(level float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lock.held.Load() {
		r.unlocked++
	}
	if r.failOn > 0 && len(r.levels)+1 == r.failOn {
		return 0, r.err
	}
	r.levels = append(r.levels, level)
	return level, nil
}

func (r *recorder) Levels() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.levels...)
}

// runMocked runs sim on its own goroutine, advancing mock until Run returns.
func runMocked(t *testing.T, sim *Simulator, mock *clock.Mock, running *atomic.Bool) error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(running) }()
	for {
		select {
		case err := <-errCh:
			return err
		case <-time.After(time.Millisecond):
			mock.Add(50 * time.Millisecond)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultConfig()
	test.That(t, conf.Validate("simulator"), test.ShouldBeNil)

	for _, tc := range []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"negative start", func(c *Config) { c.StartLevel = -1 }, "simulator.start_level"},
		{"nan start", func(c *Config) { c.StartLevel = math.NaN() }, "simulator.start_level"},
		{"start above full", func(c *Config) { c.StartLevel = 150 }, "simulator.start_level"},
		{"negative interval", func(c *Config) { c.MinInterval = -time.Second }, "simulator.min_interval"},
		{"inverted interval", func(c *Config) { c.MaxInterval = c.MinInterval - 1 }, "simulator.max_interval"},
		{"negative decrement", func(c *Config) { c.MinDecrement = -1 }, "simulator.min_decrement"},
		{"inverted decrement", func(c *Config) { c.MinDecrement, c.MaxDecrement = 5, 1 }, "simulator.max_decrement"},
		{"decrement above full", func(c *Config) { c.MaxDecrement = 101 }, "simulator.max_decrement"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			tc.modify(&conf)
			err := conf.Validate("simulator")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestNew(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lock := &trackingLock{}

	_, err := New(&recorder{lock: lock}, lock, Config{StartLevel: 10, MinDecrement: 3, MaxDecrement: 2}, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid simulator configuration")

	_, err = New(nil, lock, DefaultConfig(), nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	sim, err := New(&recorder{lock: lock}, lock, DefaultConfig(), nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sim.Level(), test.ShouldEqual, 100)
	test.That(t, sim.Ticks(), test.ShouldEqual, 0)
}

func TestFullIntervalRange(t *testing.T) {
	lock := &trackingLock{}
	conf := Config{StartLevel: 10, MaxInterval: time.Duration(math.MaxInt64), MinDecrement: 1, MaxDecrement: 1, Seed: 3}
	test.That(t, conf.Validate(""), test.ShouldBeNil)
	sim, err := New(&recorder{lock: lock}, lock, conf, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 100; i++ {
		test.That(t, sim.nextInterval() >= 0, test.ShouldBeTrue)
	}

	// Only the full range takes the separate draw.
	conf.MaxInterval--
	sim, err = New(&recorder{lock: lock}, lock, conf, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewSource(conf.Seed))
	test.That(t, sim.nextInterval(), test.ShouldEqual, time.Duration(rng.Int63n(math.MaxInt64)))
}

func TestSeededDischarge(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	lock := &trackingLock{}
	target := &recorder{lock: lock}
	mock := clock.NewMock()
	conf := Config{
		StartLevel:   20,
		MinInterval:  100 * time.Millisecond,
		MaxInterval:  300 * time.Millisecond,
		MinDecrement: 1,
		MaxDecrement: 5,
		Seed:         42,
	}
	sim, err := New(target, lock, conf, mock, logger)
	test.That(t, err, test.ShouldBeNil)

	// Replay the same draws: interval first, then decrement.
	rng := rand.New(rand.NewSource(conf.Seed))
	var expectedLevels []float64
	var expectedIntervals []time.Duration
	for level := conf.StartLevel; level > 0; {
		expectedIntervals = append(expectedIntervals, conf.MinInterval+time.Duration(rng.Int63n(int64(200*time.Millisecond)+1)))
		level = math.Max(0, level-float64(1+rng.Intn(5)))
		expectedLevels = append(expectedLevels, level)
	}

	test.That(t, runMocked(t, sim, mock, atomic.NewBool(true)), test.ShouldBeNil)
	test.That(t, target.Levels(), test.ShouldResemble, expectedLevels)
	test.That(t, target.unlocked, test.ShouldEqual, 0)
	test.That(t, sim.Level(), test.ShouldEqual, 0)
	test.That(t, sim.Ticks(), test.ShouldEqual, len(expectedLevels))

	var intervals []time.Duration
	for _, entry := range logs.FilterMessage("battery discharged").All() {
		//nolint:forcetypeassert
		intervals = append(intervals, entry.ContextMap()["next_in"].(time.Duration))
	}
	test.That(t, intervals, test.ShouldResemble, expectedIntervals)
	for _, interval := range intervals {
		test.That(t, interval >= conf.MinInterval && interval <= conf.MaxInterval, test.ShouldBeTrue)
	}
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	lock := &trackingLock{}
	target := &recorder{lock: lock}
	mock := clock.NewMock()
	sim, err := New(target, lock, Config{StartLevel: 7, MinDecrement: 5, MaxDecrement: 5, Seed: 1}, mock, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, runMocked(t, sim, mock, atomic.NewBool(true)), test.ShouldBeNil)
	test.That(t, target.Levels(), test.ShouldResemble, []float64{2, 0})
}

func TestStopsWhenFlagCleared(t *testing.T) {
	lock := &trackingLock{}
	target := &recorder{lock: lock}
	mock := clock.NewMock()
	conf := Config{StartLevel: 100, MinInterval: time.Second, MaxInterval: time.Second, MinDecrement: 1, MaxDecrement: 1, Seed: 1}
	sim, err := New(target, lock, conf, mock, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	running := atomic.NewBool(true)
	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(running) }()

	for sim.Ticks() < 3 {
		mock.Add(100 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
	running.Store(false)

	var runErr error
waitLoop:
	for {
		select {
		case runErr = <-errCh:
			break waitLoop
		case <-time.After(time.Millisecond):
			mock.Add(100 * time.Millisecond)
		}
	}
	test.That(t, runErr, test.ShouldBeNil)
	// The iteration in progress when the flag was cleared may still finish.
	test.That(t, sim.Ticks() == 3 || sim.Ticks() == 4, test.ShouldBeTrue)
	test.That(t, sim.Level(), test.ShouldEqual, 100-float64(sim.Ticks()))

	// A cleared flag means no work at all.
	before := len(target.Levels())
	test.That(t, sim.Run(running), test.ShouldBeNil)
	test.That(t, target.Levels(), test.ShouldHaveLength, before)
}

func TestStopsOnTargetError(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	lock := &trackingLock{}
	target := &recorder{lock: lock, failOn: 3, err: errors.New("device gone")}
	mock := clock.NewMock()
	sim, err := New(target, lock, Config{StartLevel: 50, MinDecrement: 2, MaxDecrement: 2, Seed: 7}, mock, logger)
	test.That(t, err, test.ShouldBeNil)

	err = runMocked(t, sim, mock, atomic.NewBool(true))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Cause(err), test.ShouldEqual, target.err)
	test.That(t, target.Levels(), test.ShouldResemble, []float64{48, 46})
	test.That(t, sim.Ticks(), test.ShouldEqual, 2)
	test.That(t, sim.Level(), test.ShouldEqual, 46)
	test.That(t, logs.FilterMessage("error in battery simulator, stopping").Len(), test.ShouldEqual, 1)
	test.That(t, lock.held.Load(), test.ShouldBeFalse)
}

func TestZeroStartLevel(t *testing.T) {
	lock := &trackingLock{}
	target := &recorder{lock: lock}
	sim, err := New(target, lock, Config{StartLevel: 0}, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sim.Run(atomic.NewBool(true)), test.ShouldBeNil)
	test.That(t, target.Levels(), test.ShouldBeEmpty)
}

// Renders racing the simulator must only ever show a whole pattern.
func TestConcurrentRenderNeverTears(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	dev := fake.NewDevice(logger)
	pins := []int{4, 5, 6, 12, 13, 16, 17, 18, 19, 20}
	ctrl, err := display.New(ctx, dev, display.Config{BatteryLevel: 100, Pattern: make([]int, len(pins)), Pins: pins}, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	defer ctrl.Close(ctx)

	var mu sync.Mutex
	sim, err := New(ctrl, &mu, Config{
		StartLevel:   100,
		MaxInterval:  time.Millisecond,
		MinDecrement: 1,
		MaxDecrement: 5,
		Seed:         3,
	}, nil, logger.Sublogger("simulator"))
	test.That(t, err, test.ShouldBeNil)

	done := make(chan error, 1)
	go func() { done <- sim.Run(atomic.NewBool(true)) }()

	isPrefix := func(states []bool) bool {
		for i := 1; i < len(states); i++ {
			if states[i] && !states[i-1] {
				return false
			}
		}
		return true
	}

	for finished := false; !finished; {
		select {
		case err := <-done:
			test.That(t, err, test.ShouldBeNil)
			finished = true
		default:
		}

		mu.Lock()
		test.That(t, ctrl.Render(ctx), test.ShouldBeNil)
		states := dev.States()
		test.That(t, isPrefix(states), test.ShouldBeTrue)
		if !ctrl.WarningActive() {
			pattern := ctrl.Pattern()
			for i, on := range states {
				test.That(t, on, test.ShouldEqual, pattern[i] == 1)
			}
		}
		mu.Unlock()
		time.Sleep(100 * time.Microsecond)
	}
	test.That(t, ctrl.BatteryLevel(), test.ShouldEqual, 0)
}
