/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/whatsapp/wadebug/pkg/logging"
)

const (
	name           = "wadebug"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// newRootCmd builds the wadebug command tree.
func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "WhatsApp Business API debugging tool",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `wadebug collects diagnostics from the Docker containers of a
WhatsApp Business API deployment.

logs - collects container logs, inspect data, core dumps and web server
       logs of the last hours into wadebug_logs.zip.`,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("WADEBUG_LOG_LEVEL", logging.EnvLogLevel),
				Value:   "info",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "shorthand for --log-level=debug",
				Sources: cli.EnvVars("WADEBUG_DEBUG"),
			},
		},
		Before: initLogger,
		Commands: []*cli.Command{
			logsCmd(),
		},
	}
}

// Execute runs the root command with os.Args and exits non-zero on error.
// This is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// initLogger configures slog after flags are parsed so overrides like
// --log-level take effect before any command executes.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String("log-level")
	if cmd.Bool("debug") {
		level = "debug"
	}
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
	return ctx, nil
}
