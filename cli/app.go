// Package cli contains the batterybar command line application.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/batterybar/components/indicator"
	// register every output backend.
	_ "go.viam.com/batterybar/components/indicator/register"
	"go.viam.com/batterybar/config"
	"go.viam.com/batterybar/coordinator"
	"go.viam.com/batterybar/logging"
)

const (
	configFlag       = "config"
	backendFlag      = "backend"
	activeLowFlag    = "active-low"
	pinsFlag         = "pins"
	batteryLevelFlag = "battery-level"
	seedFlag         = "seed"
	debugFlag        = "debug"
	logFileFlag      = "log-file"
)

// NewApp returns the batterybar app with Writer set to out and ErrWriter set
// to errOut. Console output from the display goes to out.
func NewApp(out, errOut io.Writer, logger logging.Logger) *cli.App {
	return &cli.App{
		Name:            "batterybar",
		Usage:           "show a battery level on a bar of indicator outputs",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  backendFlag,
				Usage: "output backend `NAME` (see the backends command)",
			},
			&cli.BoolFlag{
				Name:  activeLowFlag,
				Usage: "drive outputs low to light them",
			},
			&cli.IntSliceFlag{
				Name:  pinsFlag,
				Usage: "comma separated GPIO `PINS`, in fill order; resets the initial pattern",
			},
			&cli.Float64Flag{
				Name:  batteryLevelFlag,
				Usage: "initial battery `PERCENT` shown before the simulator starts",
			},
			&cli.Int64Flag{
				Name:  seedFlag,
				Usage: "seed for the discharge simulator; 0 seeds from the clock",
			},
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  logFileFlag,
				Usage: "also write logs as json to `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			return runAction(c, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "backends",
				Usage: "list the available output backends",
				Action: func(c *cli.Context) error {
					for _, name := range indicator.Backends() {
						printf(c.App.Writer, "%s", name)
					}
					return nil
				},
			},
			{
				Name:  "print-config",
				Usage: "print the effective configuration as json",
				Action: func(c *cli.Context) error {
					conf, err := resolveConfig(c, logger)
					if err != nil {
						return err
					}
					md, err := json.MarshalIndent(conf, "", "  ")
					if err != nil {
						return errors.Wrap(err, "failed to encode config")
					}
					printf(c.App.Writer, "%s", md)
					return nil
				},
			},
		},
	}
}

func runAction(c *cli.Context, logger logging.Logger) error {
	conf, err := resolveConfig(c, logger)
	if err != nil {
		return err
	}
	level := conf.Level()
	if c.Bool(debugFlag) {
		level = logging.DEBUG
	}
	if conf.LogFile != "" {
		fileLogger, closer := logging.NewLoggerWithFile("batterybar", conf.LogFile, level)
		defer goutils.UncheckedErrorFunc(closer.Close)
		defer goutils.UncheckedErrorFunc(fileLogger.Sync)
		logger = fileLogger
	}
	logger.SetLevel(level)

	dev, err := indicator.NewBackend(conf.Backend, indicator.BackendConfig{
		ActiveLow: conf.ActiveLow,
		Chip:      conf.GPIOChip,
		Out:       c.App.Writer,
	}, logger)
	if err != nil {
		return err
	}

	logger.Infow("starting", "backend", conf.Backend, "pins", conf.Pins, "config", conf.ConfigFilePath)
	return coordinator.New(dev, conf.Coordinator(), nil, logger).Run(c.Context)
}

// resolveConfig reads the config file, if any, and applies flag overrides on
// top of it.
func resolveConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	conf := config.Default()
	if path := c.String(configFlag); path != "" {
		var err error
		if conf, err = config.Read(path, logger); err != nil {
			return nil, err
		}
	}

	if c.IsSet(backendFlag) {
		conf.Backend = c.String(backendFlag)
	}
	if c.IsSet(activeLowFlag) {
		conf.ActiveLow = c.Bool(activeLowFlag)
	}
	if c.IsSet(pinsFlag) {
		conf.Pins = c.IntSlice(pinsFlag)
		conf.Pattern = make([]int, len(conf.Pins))
	}
	if c.IsSet(batteryLevelFlag) {
		conf.BatteryLevel = c.Float64(batteryLevelFlag)
	}
	if c.IsSet(seedFlag) {
		conf.Simulator.Seed = c.Int64(seedFlag)
	}
	if c.IsSet(logFileFlag) {
		conf.LogFile = c.String(logFileFlag)
	}

	if err := conf.Validate(""); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return conf, nil
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
