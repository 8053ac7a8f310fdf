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

// Package docker implements runtime.Runtime on the Docker Engine API.
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"golang.org/x/time/rate"

	"github.com/whatsapp/wadebug/pkg/defaults"
	"github.com/whatsapp/wadebug/pkg/runtime"
)

// CoreDumpGlob is the in-container location of core app core dump logs.
const CoreDumpGlob = "/usr/local/waent/logs/*core*"

// apiClient is the subset of the Docker Engine API used by Runtime.
type apiClient interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	CopyFromContainer(ctx context.Context, containerID, srcPath string) (io.ReadCloser, types.ContainerPathStat, error)
	ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
	Close() error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHost connects to a specific Docker daemon socket instead of DOCKER_HOST.
func WithHost(host string) Option {
	return func(r *Runtime) {
		r.host = host
	}
}

// WithRateLimit paces Docker API calls to qps with the given burst.
// A non-positive qps disables pacing.
func WithRateLimit(qps float64, burst int) Option {
	return func(r *Runtime) {
		if qps <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithClassifier overrides the platform image classifier.
func WithClassifier(c *runtime.Classifier) Option {
	return func(r *Runtime) {
		r.classifier = c
	}
}

// Runtime implements runtime.Runtime on the Docker Engine API.
type Runtime struct {
	client     apiClient
	host       string
	limiter    *rate.Limiter
	classifier *runtime.Classifier
}

// New creates a Runtime using environment configuration and API version negotiation.
func New(opts ...Option) (*Runtime, error) {
	r := newRuntime(nil, opts...)

	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if r.host != "" {
		clientOpts = append(clientOpts, client.WithHost(r.host))
	}
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	r.client = cli
	return r, nil
}

func newRuntime(c apiClient, opts ...Option) *Runtime {
	r := &Runtime{
		client:     c,
		limiter:    rate.NewLimiter(rate.Limit(defaults.DockerQPS), defaults.DockerBurst),
		classifier: runtime.NewClassifier(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the underlying client.
func (r *Runtime) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Runtime) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("docker api rate limiter: %w", err)
	}
	return nil
}

// ListManagedContainers lists running containers whose image belongs to the platform.
func (r *Runtime) ListManagedContainers(ctx context.Context) ([]runtime.ContainerRef, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerAPITimeout)
	defer cancel()

	containers, err := r.client.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	refs := make([]runtime.ContainerRef, 0, len(containers))
	for _, ctr := range containers {
		role, managed := r.classifier.Classify(ctr.Image)
		if !managed {
			slog.Debug("skipping unmanaged container", "id", shortID(ctr.ID), "image", ctr.Image)
			continue
		}
		refs = append(refs, runtime.ContainerRef{
			ID:    ctr.ID,
			Name:  containerName(ctr),
			Image: ctr.Image,
			Role:  role,
		})
	}
	return refs, nil
}

// Logs returns stdout and stderr for the window. Multiplexed streams of
// non-TTY containers are merged into a single stream.
func (r *Runtime) Logs(ctx context.Context, c runtime.ContainerRef, since, until int64) ([]byte, error) {
	info, err := r.inspect(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerLogsTimeout)
	defer cancel()

	rc, err := r.client.ContainerLogs(ctx, c.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Since:      strconv.FormatInt(since, 10),
		Until:      strconv.FormatInt(until, 10),
	})
	if err != nil {
		return nil, translate(err, "failed to fetch logs")
	}
	defer rc.Close()

	if info.Config != nil && info.Config.Tty {
		data, readErr := io.ReadAll(rc)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read logs: %w", readErr)
		}
		return data, nil
	}

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return nil, fmt.Errorf("failed to demultiplex logs: %w", err)
	}
	return buf.Bytes(), nil
}

// Inspect returns the raw inspect document.
func (r *Runtime) Inspect(ctx context.Context, c runtime.ContainerRef) (any, error) {
	info, err := r.inspect(ctx, c)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *Runtime) inspect(ctx context.Context, c runtime.ContainerRef) (types.ContainerJSON, error) {
	if err := r.wait(ctx); err != nil {
		return types.ContainerJSON{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerAPITimeout)
	defer cancel()

	info, err := r.client.ContainerInspect(ctx, c.ID)
	if err != nil {
		return types.ContainerJSON{}, translate(err, "failed to inspect container")
	}
	return info, nil
}

// CoreDumps concatenates the core dump logs inside the container.
// A failing command or empty output means there are none.
func (r *Runtime) CoreDumps(ctx context.Context, c runtime.ContainerRef) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerExecTimeout)
	defer cancel()

	exec, err := r.client.ContainerExecCreate(ctx, c.ID, types.ExecConfig{
		Cmd:          []string{"sh", "-c", "cat " + CoreDumpGlob},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", translate(err, "failed to create core dump exec")
	}

	att, err := r.client.ContainerExecAttach(ctx, exec.ID, types.ExecStartCheck{})
	if err != nil {
		return "", translate(err, "failed to attach core dump exec")
	}
	defer att.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, att.Reader); err != nil {
		return "", fmt.Errorf("failed to read core dump output: %w", err)
	}

	state, err := r.client.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return "", translate(err, "failed to inspect core dump exec")
	}
	if state.ExitCode != 0 || stdout.Len() == 0 {
		slog.Debug("no core dumps",
			"container", c.Name,
			"exit_code", state.ExitCode,
			"stderr", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("core dumps in %s: %w", c.Name, runtime.ErrNotFound)
	}
	return stdout.String(), nil
}

// CopyFile fetches dir as a tar stream and returns the regular file whose
// base name is filename.
func (r *Runtime) CopyFile(ctx context.Context, c runtime.ContainerRef, dir, filename string) ([]byte, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerAPITimeout)
	defer cancel()

	rc, _, err := r.client.CopyFromContainer(ctx, c.ID, dir)
	if err != nil {
		return nil, translate(err, "failed to copy "+dir)
	}
	defer rc.Close()

	return extractFile(rc, filename)
}

// extractFile reads a tar stream and returns the first regular file named name.
func extractFile(r io.Reader, name string) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, runtime.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != name {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from archive: %w", name, err)
		}
		return data, nil
	}
}

// translate maps Docker not-found errors onto runtime.ErrNotFound.
func translate(err error, msg string) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", msg, runtime.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func containerName(ctr types.Container) string {
	if len(ctr.Names) > 0 {
		return strings.TrimPrefix(ctr.Names[0], "/")
	}
	return shortID(ctr.ID)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
