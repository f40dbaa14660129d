// Package main is the batterybar command itself.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goutils "go.viam.com/utils"

	"go.viam.com/batterybar/cli"
	"go.viam.com/batterybar/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger := logging.NewLogger("batterybar")
	logging.ReplaceGlobal(logger)

	app := cli.NewApp(os.Stdout, os.Stderr, logger)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		logger.Error(err)
	}
	goutils.UncheckedErrorFunc(logger.Sync)
	if err != nil {
		os.Exit(1)
	}
}
