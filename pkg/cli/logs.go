/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/whatsapp/wadebug/pkg/config"
	"github.com/whatsapp/wadebug/pkg/defaults"
	"github.com/whatsapp/wadebug/pkg/publish"
	"github.com/whatsapp/wadebug/pkg/runner"
	"github.com/whatsapp/wadebug/pkg/runtime"
	"github.com/whatsapp/wadebug/pkg/runtime/docker"
	"github.com/whatsapp/wadebug/pkg/serializer"
)

// newRuntime connects to the container runtime. Replaced in tests.
var newRuntime = func(cmd *cli.Command) (runtime.Runtime, func(), error) {
	opts := []docker.Option{
		docker.WithRateLimit(cmd.Float("docker-qps"), cmd.Int("docker-burst")),
	}
	if host := cmd.String("docker-host"); host != "" {
		opts = append(opts, docker.WithHost(host))
	}
	if extra := cmd.StringSlice("registry"); len(extra) > 0 {
		opts = append(opts, docker.WithClassifier(&runtime.Classifier{
			Registries: append(append([]string{}, runtime.DefaultRegistries...), extra...),
			Roles:      runtime.DefaultRoles,
		}))
	}

	rt, err := docker.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return rt, func() {
		if err := rt.Close(); err != nil {
			slog.Warn("failed to close docker client", "error", err)
		}
	}, nil
}

func logsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "logs",
		EnableShellCompletion: true,
		Usage:                 "Collect container logs into wadebug_logs.zip",
		Description: `Collect diagnostics from every running WhatsApp Business API container:
  - Container output within the time window
  - Container inspect data
  - Core dump logs of coreapp containers
  - Web and lighttpd error logs of web containers
  - Support info from the webapp API, when configured

The window starts at --since and spans --duration. Without --since it
covers the last --duration up to now. A container that cannot be collected
does not stop the run: the archive is still written and the command exits
non-zero listing every failed container.

# Examples

Last three hours:
  wadebug logs

Three hours from a given time:
  wadebug logs --since "2024-05-01 10:00:00"

Publish the archive to a registry:
  wadebug logs --publish oci://ghcr.io/acme/wadebug`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "since",
				Usage: "start of the log window; without it the window ends now",
			},
			&cli.StringFlag{
				Name:  "since-format",
				Usage: "strftime format of --since",
				Value: defaults.SinceFormat,
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "length of the log window",
				Value: defaults.LogDuration,
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA time zone --since is interpreted in",
				Value: "UTC",
			},
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "directory the output folder and archive are created in; defaults to the current directory",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "name of the output folder",
				Value: defaults.OutputFolder,
			},
			&cli.StringFlag{
				Name:  "archive-name",
				Usage: "file name of the zip archive written next to the output folder",
				Value: defaults.ArchiveBaseName + defaults.ArchiveExtension,
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "containers collected in parallel",
				Sources: cli.EnvVars("WADEBUG_WORKERS"),
				Value:   defaults.Workers,
			},
			&cli.BoolFlag{
				Name:  "keep-stale",
				Usage: "keep files of previous runs in the output folder",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "configuration file",
				Sources: cli.EnvVars("WADEBUG_CONFIG"),
				Value:   defaults.ConfigFile,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading WADEBUG_* variables",
				Value: defaults.EnvFile,
			},
			&cli.StringFlag{
				Name:    "docker-host",
				Usage:   "Docker daemon socket; defaults to DOCKER_HOST",
				Sources: cli.EnvVars("WADEBUG_DOCKER_HOST"),
			},
			&cli.FloatFlag{
				Name:  "docker-qps",
				Usage: "Docker API calls per second, 0 disables pacing",
				Value: defaults.DockerQPS,
			},
			&cli.IntFlag{
				Name:  "docker-burst",
				Usage: "Docker API burst size",
				Value: defaults.DockerBurst,
			},
			&cli.StringSliceFlag{
				Name:  "registry",
				Usage: "additional registry of platform images (can be repeated)",
			},
			&cli.BoolFlag{
				Name:  "include-host-services",
				Usage: "add systemd properties of docker and containerd",
			},
			&cli.StringFlag{
				Name:    "publish",
				Usage:   "publish the archive to oci://registry/repo[:tag] or s3://bucket[/prefix]",
				Sources: cli.EnvVars("WADEBUG_PUBLISH"),
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP for the registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip registry certificate verification",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("summary format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
				Value:   string(serializer.FormatYAML),
			},
			&cli.StringFlag{
				Name:    "summary-file",
				Aliases: []string{"o"},
				Usage:   "write the summary to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics in text format to this file",
			},
		},
		Action: runLogs,
	}
}

func runLogs(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	var target *publish.Target
	if p := cmd.String("publish"); p != "" {
		if target, err = publish.ParseTarget(p); err != nil {
			return err
		}
	}

	loc, err := time.LoadLocation(cmd.String("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cmd.String("timezone"), err)
	}

	// Configuration only feeds support info, which never fails the run.
	cfg, cfgErr := loadConfig(cmd.String("env-file"), cmd.String("config"))
	if cfgErr != nil {
		slog.Warn("failed to load configuration, support info will be skipped", "error", cfgErr)
	}

	rt, closeRuntime, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime()

	opts := []runner.Option{
		runner.WithOutputDir(cmd.String("output-dir")),
		runner.WithDuration(cmd.Duration("duration")),
		runner.WithLocation(loc),
		runner.WithWorkers(cmd.Int("workers")),
		runner.WithKeepStale(cmd.Bool("keep-stale")),
		runner.WithHostServices(cmd.Bool("include-host-services")),
		runner.WithArchiveName(cmd.String("archive-name")),
		runner.WithConfigError(cfgErr),
	}
	if dir := cmd.String("work-dir"); dir != "" {
		opts = append(opts, runner.WithWorkDir(dir))
	}
	if since := cmd.String("since"); since != "" {
		opts = append(opts, runner.WithSince(since, cmd.String("since-format")))
	}

	res, runErr := runner.New(rt, cfg, opts...).Run(ctx)
	if res == nil {
		return runErr
	}
	defer func() {
		if err := res.Close(); err != nil {
			slog.Warn("failed to close archive", "error", err)
		}
	}()

	var publishErr error
	if target != nil {
		publishErr = publishArchive(ctx, cmd, target, res)
	}

	w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("summary-file"))
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close summary writer", "error", err)
		}
	}()
	if err := w.Serialize(ctx, res.Summary()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			slog.Warn("failed to write metrics", "path", path, "error", err)
		}
	}

	return errors.Join(runErr, publishErr)
}

func publishArchive(ctx context.Context, cmd *cli.Command, target *publish.Target, res *runner.Result) error {
	p := publish.New(
		publish.WithPlainHTTP(cmd.Bool("plain-http")),
		publish.WithInsecureTLS(cmd.Bool("insecure-tls")),
	)
	location, err := p.Publish(ctx, target, publish.Request{
		ArchivePath: res.ArchivePath,
		RunID:       res.RunID,
		Digest:      res.ArchiveDigest.String(),
	})
	if err != nil {
		slog.Error("failed to publish archive", "target", target.String(), "error", err)
		return fmt.Errorf("failed to publish archive to %s: %w", target, err)
	}
	res.Published = location
	return nil
}

// loadConfig loads the env file and the configuration file, then applies
// WADEBUG_WEBAPP_* overrides. A nil Config means support info is not configured.
func loadConfig(envFile, path string) (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	var cfg *config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	return config.ApplyEnv(cfg)
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}
