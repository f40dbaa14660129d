// Package console draws the indicator row on a terminal instead of driving
// hardware. Each state change redraws the row in place.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"go.viam.com/batterybar/components/indicator"
	"go.viam.com/batterybar/logging"
)

// BackendName is the registry name of the console device.
const BackendName = "console"

const (
	litCell   = "█"
	unlitCell = "░"
)

func init() {
	indicator.RegisterBackend(BackendName, func(conf indicator.BackendConfig, logger logging.Logger) (indicator.Device, error) {
		return NewDevice(conf.Out, logger), nil
	})
}

// A Device renders one cell per configured pin.
type Device struct {
	mu     sync.Mutex
	out    io.Writer
	lit    *color.Color
	unlit  *color.Color
	order  []int
	index  map[int]int
	states []bool
	drawn  bool
	logger logging.Logger
}

// NewDevice returns a console device writing to out, or to color.Output when
// out is nil.
func NewDevice(out io.Writer, logger logging.Logger) *Device {
	if out == nil {
		out = color.Output
	}
	return &Device{
		out:    out,
		lit:    color.New(color.FgGreen, color.Bold),
		unlit:  color.New(color.FgHiBlack),
		index:  map[int]int{},
		logger: logger,
	}
}

// Configure draws an all-unlit row.
func (d *Device) Configure(ctx context.Context, pins []int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.order = append([]int(nil), pins...)
	d.index = make(map[int]int, len(pins))
	for i, pin := range pins {
		d.index[pin] = i
	}
	d.states = make([]bool, len(pins))
	return d.draw()
}

// SetOutput redraws the row if the pin changed.
func (d *Device) SetOutput(ctx context.Context, pin int, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.index[pin]
	if !ok {
		return errors.Errorf("pin %d is not configured", pin)
	}
	if d.states[i] == on {
		return nil
	}
	d.states[i] = on
	return d.draw()
}

// Release draws the row dark and ends the line.
func (d *Device) Release(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.drawn {
		return
	}
	for i := range d.states {
		d.states[i] = false
	}
	if err := d.draw(); err != nil {
		d.logger.Errorw("error clearing console row", "error", err)
	}
	if _, err := fmt.Fprintln(d.out); err != nil {
		d.logger.Errorw("error clearing console row", "error", err)
	}
	d.drawn = false
}

// Row returns the current row as plain text, without colour.
func (d *Device) Row() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.row(false)
}

func (d *Device) row(colored bool) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, on := range d.states {
		switch {
		case on && colored:
			sb.WriteString(d.lit.Sprint(litCell))
		case on:
			sb.WriteString(litCell)
		case colored:
			sb.WriteString(d.unlit.Sprint(unlitCell))
		default:
			sb.WriteString(unlitCell)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (d *Device) draw() error {
	_, err := fmt.Fprintf(d.out, "\r%s", d.row(true))
	d.drawn = true
	return err
}
