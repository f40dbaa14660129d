// Package coordinator runs a display and a discharge simulator side by side
// until told to stop, then shuts both down.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/display"
	"go.viam.com/batterybar/logging"
	"go.viam.com/batterybar/simulator"
	"go.viam.com/batterybar/utils"
)

// Defaults for the render loop and shutdown.
const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultJoinTimeout  = 5 * time.Second
)

// Config holds everything a run needs besides the device.
type Config struct {
	Display      display.Config
	Simulator    simulator.Config
	TickInterval time.Duration
	JoinTimeout  time.Duration
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	field := func(name string) string {
		if path == "" {
			return name
		}
		return fmt.Sprintf("%s.%s", path, name)
	}

	if err := conf.Display.Validate(path); err != nil {
		return err
	}
	if err := conf.Simulator.Validate(field("simulator")); err != nil {
		return err
	}
	if conf.TickInterval <= 0 {
		return errors.Errorf("%s: must be positive, got %v", field("tick_interval"), conf.TickInterval)
	}
	if conf.JoinTimeout <= 0 {
		return errors.Errorf("%s: must be positive, got %v", field("join_timeout"), conf.JoinTimeout)
	}
	return nil
}

// A Coordinator owns one run: it builds the display on its device, starts the
// simulator against it and renders on a fixed tick.
type Coordinator struct {
	dev  indicator.Device
	conf Config

	// mu guards the controller for both the simulator and the render loop.
	mu      sync.Mutex
	running *atomic.Bool

	stopOnce sync.Once
	stopped  chan struct{}
	worker   *utils.Worker

	clk    clock.Clock
	logger logging.Logger
}

// New returns a Coordinator for dev. Nothing happens until Run. A nil clk
// uses the wall clock.
func New(dev indicator.Device, conf Config, clk clock.Clock, logger logging.Logger) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{
		dev:     dev,
		conf:    conf,
		running: atomic.NewBool(true),
		stopped: make(chan struct{}),
		worker:  utils.NewWorker(),
		clk:     clk,
		logger:  logger,
	}
}

// Running reports whether the run has not yet been asked to stop.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Stop asks the run to wind down. It only clears the keep-running flag, so the
// simulator finishes its current iteration first. Stop may be called any
// number of times, from any goroutine, before, during or after Run.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("stop requested, shutting down")
		c.running.Store(false)
		close(c.stopped)
	})
}

// SimulatorDone is closed once the simulator goroutine has returned. It never
// closes if Run did not get as far as starting it.
func (c *Coordinator) SimulatorDone() <-chan struct{} {
	return c.worker.Done()
}

// Run drives the display until ctx is done, Stop is called, the simulator
// finishes, or a render fails. The display is always cleaned up before Run
// returns. A failure to construct the display or the simulator, or a render
// failure, is returned. Simulator errors only end the run.
func (c *Coordinator) Run(ctx context.Context) error {
	// ctx may already be done by the time the device is released.
	cleanupCtx := context.WithoutCancel(ctx)
	defer c.Stop()

	ctrl, err := display.New(ctx, c.dev, c.conf.Display, c.clk, c.logger.Sublogger("display"))
	if err != nil {
		c.logger.Errorw("failed to initialize display", "error", err)
		return err
	}
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.logger.Infow("final status", "status", ctrl.Status())
		ctrl.Close(cleanupCtx)
	}()

	if c.conf.TickInterval <= 0 {
		return errors.Errorf("tick interval must be positive, got %v", c.conf.TickInterval)
	}
	sim, err := simulator.New(ctrl, &c.mu, c.conf.Simulator, c.clk, c.logger.Sublogger("simulator"))
	if err != nil {
		return err
	}

	if err := c.initialRender(ctx, ctrl); err != nil {
		c.logger.Errorw("initial render failed", "error", err)
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-c.stopped:
		}
	}()

	c.worker.Start(func() {
		if err := sim.Run(c.running); err != nil {
			c.logger.Errorw("simulator ended with error", "error", err)
		}
	})
	c.logger.Infow("display running", "tick", c.conf.TickInterval)

	renderErr := c.renderLoop(ctx, ctrl)
	c.Stop()

	if !c.worker.WaitFor(c.clk, c.conf.JoinTimeout) {
		c.logger.Warnw("simulator did not stop in time, abandoning it", "timeout", c.conf.JoinTimeout)
	}
	return renderErr
}

func (c *Coordinator) initialRender(ctx context.Context, ctrl *display.Controller) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctrl.CalculatePattern(); err != nil {
		return err
	}
	return ctrl.Render(ctx)
}

func (c *Coordinator) renderLoop(ctx context.Context, ctrl *display.Controller) error {
	ticker := c.clk.Ticker(c.conf.TickInterval)
	defer ticker.Stop()

	for c.running.Load() {
		select {
		case <-c.stopped:
			return nil
		case <-c.worker.Done():
			c.logger.Info("simulator finished")
			return nil
		case <-ticker.C:
		}

		c.mu.Lock()
		err := ctrl.Render(ctx)
		c.mu.Unlock()
		if err != nil {
			c.logger.Errorw("render failed, shutting down", "error", err)
			return err
		}
	}
	return nil
}
