// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/whatsapp/wadebug/pkg/archive"
	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/collector"
	"github.com/whatsapp/wadebug/pkg/config"
	"github.com/whatsapp/wadebug/pkg/defaults"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
	"github.com/whatsapp/wadebug/pkg/runtime"
	"github.com/whatsapp/wadebug/pkg/supportinfo"
	"github.com/whatsapp/wadebug/pkg/timewindow"
)

// Option configures a Runner.
type Option func(*Runner)

// WithWorkDir sets the directory receiving the output folder and the archive.
// Defaults to the process working directory.
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// WithOutputDir sets the output folder name, relative to the work directory.
func WithOutputDir(name string) Option {
	return func(r *Runner) {
		r.outputDir = name
	}
}

// WithArchiveName sets the archive file name, relative to the work directory.
// An empty name keeps the default.
func WithArchiveName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.archiveName = name
		}
	}
}

// WithSince starts the window at value parsed with format.
// An empty value makes the window end at the current time.
func WithSince(value, format string) Option {
	return func(r *Runner) {
		r.since = value
		if format != "" {
			r.sinceFormat = format
		}
	}
}

// WithLocation sets the timezone of the anchor and the window.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) {
		r.location = loc
	}
}

// WithDuration sets the window length.
func WithDuration(d time.Duration) Option {
	return func(r *Runner) {
		r.duration = d
	}
}

// WithWorkers bounds the number of containers collected concurrently.
// Values below one are treated as one.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = max(n, 1)
	}
}

// WithKeepStale keeps files of previous runs in the output folder.
func WithKeepStale(keep bool) Option {
	return func(r *Runner) {
		r.keepStale = keep
	}
}

// WithHostServices adds the systemd snapshot of the container engine.
func WithHostServices(include bool) Option {
	return func(r *Runner) {
		r.hostServices = include
	}
}

// WithConfigError records a configuration load failure. Support info is then
// reported unavailable; collection is otherwise unaffected.
func WithConfigError(err error) Option {
	return func(r *Runner) {
		r.configErr = err
	}
}

// WithFactory replaces the default collector factory.
func WithFactory(f collector.Factory) Option {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithClock replaces time.Now when resolving the window.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// Runner drives one log collection run over the managed containers.
type Runner struct {
	runtime runtime.Runtime
	config    *config.Config
	configErr error
	factory   collector.Factory

	workDir      string
	outputDir    string
	archiveName  string
	since        string
	sinceFormat  string
	location     *time.Location
	duration     time.Duration
	workers      int
	keepStale    bool
	hostServices bool
	now          func() time.Time
}

// New creates a Runner over rt. cfg may be nil, in which case support info
// is not collected.
func New(rt runtime.Runtime, cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		runtime:     rt,
		config:      cfg,
		outputDir:   defaults.OutputFolder,
		archiveName: defaults.ArchiveBaseName + defaults.ArchiveExtension,
		sinceFormat: defaults.SinceFormat,
		location:    defaults.LogLocation,
		duration:    defaults.LogDuration,
		workers:     defaults.Workers,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = collector.NewDefaultFactory(rt)
	}
	return r
}

type containerOutcome struct {
	artifacts []artifact.Artifact
	err       error
}

// Run collects every managed container, support info and, when enabled,
// host services, then archives the output folder.
//
// Setup failures (output folder access, anchor parsing, container listing)
// abort the run before anything is collected. When some containers fail the
// run still archives what was collected and returns the Result together with
// a *LogsNotCompleteError carrying the same Result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() {
		runDuration.Observe(time.Since(start).Seconds())
	}()

	workDir := r.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileAccess,
				"Access error: Cannot read from current directory", err)
		}
		workDir = wd
	}

	dir, err := artifact.EnsureOutputDirectory(workDir, r.outputDir)
	if err != nil {
		return nil, err
	}
	if !r.keepStale {
		if err := artifact.Clean(dir); err != nil {
			return nil, err
		}
	}

	window, err := timewindow.ResolveAt(r.since, r.sinceFormat, r.location, r.duration, r.now())
	if err != nil {
		return nil, err
	}

	refs, err := r.runtime.ListManagedContainers(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to list containers", err)
	}

	res := &Result{
		RunID:      uuid.NewString(),
		Window:     window,
		Containers: refs,
	}
	slog.Info("collecting container logs",
		"run_id", res.RunID,
		"window", window.String(),
		"containers", len(refs),
		"workers", r.workers)

	w := artifact.NewWriter(dir)
	outcomes := r.collectContainers(ctx, w, refs, window)

	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, CollectionError{
				Container: refs[i],
				Err:       o.err,
				Partial:   o.artifacts,
			})
			continue
		}
		res.Artifacts = append(res.Artifacts, o.artifacts...)
	}

	// Support info does not depend on the containers and is always attempted.
	sc := supportinfo.NewCollector(r.config, w)
	sc.ConfigErr = r.configErr
	si := sc.Collect(ctx)
	res.SupportInfo = si.Outcome
	supportInfoTotal.WithLabelValues(string(si.Outcome)).Inc()
	if a, ok := si.Get(); ok {
		res.Artifacts = append(res.Artifacts, a)
	}

	if r.hostServices {
		a, err := r.factory.CreateHostCollector(w).Collect(ctx)
		if err != nil {
			slog.Warn("host services unavailable", "error", err)
		} else {
			res.Artifacts = append(res.Artifacts, a)
		}
	}
	artifactCount.Set(float64(len(res.Artifacts)))

	res.ArchivePath = filepath.Join(workDir, r.archiveName)
	f, err := archive.Zip(ctx, dir, res.ArchivePath)
	if err != nil {
		res.Duration = time.Since(start)
		return res, withFailures(err, res)
	}
	res.Archive = f

	d, err := archive.Digest(f)
	if err != nil {
		_ = res.Close()
		res.Duration = time.Since(start)
		return res, withFailures(err, res)
	}
	res.ArchiveDigest = d
	res.Duration = time.Since(start)

	slog.Info("logs archived",
		"run_id", res.RunID,
		"archive", res.ArchivePath,
		"digest", d.String(),
		"artifacts", len(res.Artifacts),
		"failures", len(res.Failures),
		"duration", res.Duration.String())

	return res, withFailures(nil, res)
}

// withFailures joins err with a *LogsNotCompleteError when res has container
// failures.
func withFailures(err error, res *Result) error {
	if len(res.Failures) == 0 {
		return err
	}
	incomplete := &LogsNotCompleteError{Failures: res.Failures, Result: res}
	if err == nil {
		return incomplete
	}
	return errors.Join(err, incomplete)
}

// collectContainers runs the container collector over refs with at most
// r.workers in flight. Outcomes are indexed like refs.
func (r *Runner) collectContainers(ctx context.Context, w *artifact.Writer, refs []runtime.ContainerRef, window timewindow.Window) []containerOutcome {
	outcomes := make([]containerOutcome, len(refs))
	cc := r.factory.CreateContainerCollector(w)

	// Failures are recorded, not returned, so one container never cancels the others.
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, ref := range refs {
		g.Go(func() error {
			collectStart := time.Now()
			defer func() {
				containerCollectDuration.WithLabelValues(ref.Role.String()).Observe(time.Since(collectStart).Seconds())
			}()

			slog.Debug("collecting container", "container", ref.Name, "role", ref.Role.String())
			artifacts, err := cc.Collect(ctx, ref, window)
			outcomes[i] = containerOutcome{artifacts: artifacts, err: err}

			if err != nil {
				containerCollectionTotal.WithLabelValues("error").Inc()
				slog.Warn("failed to collect container", "container", ref.Name, "error", err)
				return nil
			}
			containerCollectionTotal.WithLabelValues("success").Inc()
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
