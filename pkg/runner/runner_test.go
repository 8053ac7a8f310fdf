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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/collector"
	"github.com/whatsapp/wadebug/pkg/collector/systemd"
	"github.com/whatsapp/wadebug/pkg/config"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
	"github.com/whatsapp/wadebug/pkg/runtime"
	"github.com/whatsapp/wadebug/pkg/supportinfo"
)

// memRuntime is an in-memory runtime. Containers listed in failLogs fail
// their log fetch.
type memRuntime struct {
	refs     []runtime.ContainerRef
	listErr  error
	failLogs map[string]error
	delay    time.Duration

	mu       sync.Mutex
	windows  map[string][2]int64
	inFlight int
	peak     int
}

func (m *memRuntime) ListManagedContainers(context.Context) ([]runtime.ContainerRef, error) {
	return m.refs, m.listErr
}

func (m *memRuntime) Logs(_ context.Context, c runtime.ContainerRef, since, until int64) ([]byte, error) {
	m.mu.Lock()
	if m.windows == nil {
		m.windows = make(map[string][2]int64)
	}
	m.windows[c.Name] = [2]int64{since, until}
	m.inFlight++
	m.peak = max(m.peak, m.inFlight)
	m.mu.Unlock()

	time.Sleep(m.delay)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if err := m.failLogs[c.Name]; err != nil {
		return nil, err
	}
	return []byte("log line from " + c.Name + "\n"), nil
}

func (m *memRuntime) Inspect(_ context.Context, c runtime.ContainerRef) (any, error) {
	return map[string]any{"Id": c.ID, "Image": c.Image}, nil
}

func (m *memRuntime) CoreDumps(context.Context, runtime.ContainerRef) (string, error) {
	return "core dump\n", nil
}

func (m *memRuntime) CopyFile(_ context.Context, _ runtime.ContainerRef, dir, file string) ([]byte, error) {
	return []byte(dir + "/" + file), nil
}

var (
	dbRef   = runtime.ContainerRef{ID: "id-db", Name: "wadb_1", Image: "docker.whatsapp.biz/db:v2", Role: runtime.RoleGeneric}
	coreRef = runtime.ContainerRef{ID: "id-core", Name: "wacore_1", Image: "docker.whatsapp.biz/coreapp:v2", Role: runtime.RoleGeneric | runtime.RoleCore}
	webRef  = runtime.ContainerRef{ID: "id-web", Name: "waweb_1", Image: "docker.whatsapp.biz/web:v2", Role: runtime.RoleGeneric | runtime.RoleWeb}
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func supportAPI(t *testing.T) *config.Config {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/users/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"token":"t"}]}`))
	})
	mux.HandleFunc("GET /v1/support", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"support":{"version":"v2.53"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &config.Config{WebApp: &config.WebApp{BaseURL: srv.URL, User: "admin", Password: "pw"}}
}

func TestRun_EndToEnd(t *testing.T) {
	work := t.TempDir()
	rt := &memRuntime{refs: []runtime.ContainerRef{dbRef, coreRef, webRef}}

	res, err := New(rt, supportAPI(t), WithWorkDir(work), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	want := []string{
		"wadb_1-container.log", "wadb_1-inspect.log",
		"wacore_1-container.log", "wacore_1-inspect.log", "wacore_1-coredump.log",
		"waweb_1-container.log", "waweb_1-inspect.log", "waweb_1-web.log", "waweb_1-error.log",
		"support-info.log",
	}
	assert.Equal(t, want, artifact.Names(res.Artifacts))
	assert.True(t, res.Complete())
	assert.Empty(t, res.Failures)
	assert.Equal(t, supportinfo.OutcomeCollected, res.SupportInfo)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, filepath.Join(work, "wadebug_logs.zip"), res.ArchivePath)
	require.NotNil(t, res.Archive)
	assert.Equal(t, "sha256", res.ArchiveDigest.Algorithm().String())

	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, zipNames(t, res.ArchivePath))

	// default window: three hours ending now, in UTC
	assert.True(t, res.Window.End.Equal(fixedNow))
	assert.Equal(t, 3*time.Hour, res.Window.Duration())
	assert.Equal(t, [2]int64{fixedNow.Add(-3 * time.Hour).Unix(), fixedNow.Unix()}, rt.windows["wacore_1"])
}

func TestRun_PartialFailure(t *testing.T) {
	work := t.TempDir()
	rt := &memRuntime{
		refs: []runtime.ContainerRef{dbRef, coreRef, webRef},
		failLogs: map[string]error{
			"wadb_1":  errors.New("container is restarting"),
			"waweb_1": fmt.Errorf("logs: %w", runtime.ErrNotFound),
		},
	}

	res, err := New(rt, nil, WithWorkDir(work), WithClock(clock)).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, res)
	t.Cleanup(func() { _ = res.Close() })

	var incomplete *LogsNotCompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Same(t, res, incomplete.Result)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLogsNotComplete))
	assert.ErrorIs(t, err, runtime.ErrNotFound)

	assert.Equal(t,
		"Some logs could not be obtained:\n"+
			"Container: wadb_1\nException: container is restarting\n"+
			"Container: waweb_1\nException: logs: not found",
		err.Error())

	require.Len(t, incomplete.Failures, 2)
	assert.Equal(t, "wadb_1", incomplete.Failures[0].Container.Name)
	assert.Equal(t, "waweb_1", incomplete.Failures[1].Container.Name)

	assert.Equal(t, []string{"wacore_1-container.log", "wacore_1-inspect.log", "wacore_1-coredump.log"},
		artifact.Names(res.Artifacts))
	assert.False(t, res.Complete())
	assert.Equal(t, supportinfo.OutcomeNotConfigured, res.SupportInfo)

	// archive is produced even though the run is incomplete
	assert.FileExists(t, res.ArchivePath)
	assert.NotEmpty(t, res.ArchiveDigest)

	summary := res.Summary()
	assert.False(t, summary.Complete)
	require.Len(t, summary.Containers, 3)
	assert.Equal(t, StatusFailed, summary.Containers[0].Status)
	assert.Equal(t, StatusCollected, summary.Containers[1].Status)
	assert.Equal(t, "container is restarting", summary.Containers[0].Error)
}

func TestRun_AllFail(t *testing.T) {
	rt := &memRuntime{
		refs:     []runtime.ContainerRef{dbRef},
		failLogs: map[string]error{"wadb_1": errors.New("boom")},
	}

	res, err := New(rt, nil, WithWorkDir(t.TempDir()), WithClock(clock)).Run(context.Background())
	require.Error(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Empty(t, res.Artifacts)
	assert.Empty(t, zipNames(t, res.ArchivePath))
}

func TestRun_NoContainers(t *testing.T) {
	res, err := New(&memRuntime{}, nil, WithWorkDir(t.TempDir()), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Empty(t, res.Artifacts)
	assert.True(t, res.Complete())
	assert.FileExists(t, res.ArchivePath)
}

func TestRun_SetupFailures(t *testing.T) {
	t.Run("unparsable anchor", func(t *testing.T) {
		_, err := New(&memRuntime{refs: []runtime.ContainerRef{dbRef}}, nil,
			WithWorkDir(t.TempDir()), WithSince("yesterday", "%Y-%m-%d %H:%M:%S")).Run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeParse))
	})

	t.Run("unreadable working directory", func(t *testing.T) {
		_, err := New(&memRuntime{}, nil, WithWorkDir(filepath.Join(t.TempDir(), "gone"))).Run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
	})

	t.Run("container listing", func(t *testing.T) {
		rt := &memRuntime{listErr: errors.New("cannot connect to the docker daemon")}
		_, err := New(rt, nil, WithWorkDir(t.TempDir())).Run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnavailable))
	})
}

func TestRun_Anchor(t *testing.T) {
	rt := &memRuntime{refs: []runtime.ContainerRef{dbRef}}

	res, err := New(rt, nil,
		WithWorkDir(t.TempDir()),
		WithSince("2024-04-30 08:00:00", ""),
		WithDuration(time.Hour),
	).Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	start := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)
	assert.True(t, res.Window.Start.Equal(start))
	assert.True(t, res.Window.End.Equal(start.Add(time.Hour)))
	assert.Equal(t, [2]int64{start.Unix(), start.Add(time.Hour).Unix()}, rt.windows["wadb_1"])
}

func TestRun_ConfigErrorOnlyAffectsSupportInfo(t *testing.T) {
	rt := &memRuntime{refs: []runtime.ContainerRef{dbRef}}
	res, err := New(rt, supportAPI(t),
		WithWorkDir(t.TempDir()),
		WithClock(clock),
		WithConfigError(errors.New("yaml: line 1: did not find expected ',' or ']'")),
	).Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Equal(t, supportinfo.OutcomeUnavailable, res.SupportInfo)
	assert.Equal(t, []string{"wadb_1-container.log", "wadb_1-inspect.log"}, artifact.Names(res.Artifacts))
	assert.FileExists(t, res.ArchivePath)
}

func TestRun_ArchiveName(t *testing.T) {
	work := t.TempDir()
	res, err := New(&memRuntime{refs: []runtime.ContainerRef{dbRef}}, nil,
		WithWorkDir(work), WithClock(clock), WithArchiveName("ticket-42.zip")).Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Equal(t, filepath.Join(work, "ticket-42.zip"), res.ArchivePath)
	assert.Contains(t, zipNames(t, res.ArchivePath), "wadb_1-container.log")
}

func TestRun_ArchiveFailureKeepsContainerFailures(t *testing.T) {
	rt := &memRuntime{
		refs:     []runtime.ContainerRef{dbRef, coreRef},
		failLogs: map[string]error{"wadb_1": errors.New("container is restarting")},
	}

	res, err := New(rt, nil,
		WithWorkDir(t.TempDir()),
		WithClock(clock),
		WithArchiveName(filepath.Join("missing", "wadebug_logs.zip")),
	).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.Archive)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
	var incomplete *LogsNotCompleteError
	require.ErrorAs(t, err, &incomplete)
	require.Len(t, incomplete.Failures, 1)
	assert.Equal(t, "wadb_1", incomplete.Failures[0].Container.Name)
	assert.Contains(t, err.Error(), "failed to create archive")
	assert.Contains(t, err.Error(), "Container: wadb_1")
}

func TestRun_ArchiveFailureWithoutContainerFailures(t *testing.T) {
	res, err := New(&memRuntime{refs: []runtime.ContainerRef{dbRef}}, nil,
		WithWorkDir(t.TempDir()),
		WithArchiveName(filepath.Join("missing", "wadebug_logs.zip")),
	).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, res)

	var incomplete *LogsNotCompleteError
	assert.False(t, errors.As(err, &incomplete))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
}

func TestRun_StaleOutput(t *testing.T) {
	work := t.TempDir()
	out := filepath.Join(work, "wadebug_logs")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "old-container.log"), []byte("stale"), 0o644))

	t.Run("cleared by default", func(t *testing.T) {
		res, err := New(&memRuntime{refs: []runtime.ContainerRef{dbRef}}, nil,
			WithWorkDir(work), WithKeepStale(false)).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })
		assert.NotContains(t, zipNames(t, res.ArchivePath), "old-container.log")
	})

	t.Run("kept on request", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(out, "old-container.log"), []byte("stale"), 0o644))
		res, err := New(&memRuntime{refs: []runtime.ContainerRef{dbRef}}, nil,
			WithWorkDir(work), WithKeepStale(true)).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })
		assert.Contains(t, zipNames(t, res.ArchivePath), "old-container.log")
	})
}

func TestRun_Workers(t *testing.T) {
	refs := make([]runtime.ContainerRef, 0, 8)
	for i := range 8 {
		refs = append(refs, runtime.ContainerRef{
			ID:   fmt.Sprintf("id-%d", i),
			Name: fmt.Sprintf("wadb_%d", i),
			Role: runtime.RoleGeneric,
		})
	}

	t.Run("sequential by default", func(t *testing.T) {
		rt := &memRuntime{refs: refs, delay: 5 * time.Millisecond}
		res, err := New(rt, nil, WithWorkDir(t.TempDir())).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })
		assert.Equal(t, 1, rt.peak)
	})

	t.Run("bounded pool keeps inventory order", func(t *testing.T) {
		rt := &memRuntime{refs: refs, delay: 5 * time.Millisecond}
		res, err := New(rt, nil, WithWorkDir(t.TempDir()), WithWorkers(3)).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })

		assert.LessOrEqual(t, rt.peak, 3)
		require.Len(t, res.Artifacts, 16)
		for i := range refs {
			assert.Equal(t, fmt.Sprintf("wadb_%d-container.log", i), res.Artifacts[2*i].Name)
		}
	})
}

type stubUnits struct{ err error }

func (s stubUnits) Collect(context.Context) ([]systemd.Unit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []systemd.Unit{{Name: "docker.service", Properties: map[string]any{"ActiveState": "active"}}}, nil
}

type hostFactory struct {
	*collector.DefaultFactory
	err error
}

func (f hostFactory) CreateHostCollector(w *artifact.Writer) *collector.HostCollector {
	return &collector.HostCollector{Units: stubUnits{err: f.err}, Writer: w}
}

func TestRun_HostServices(t *testing.T) {
	t.Run("included", func(t *testing.T) {
		rt := &memRuntime{refs: []runtime.ContainerRef{dbRef}}
		res, err := New(rt, nil,
			WithWorkDir(t.TempDir()),
			WithHostServices(true),
			WithFactory(hostFactory{DefaultFactory: collector.NewDefaultFactory(rt)}),
		).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })
		assert.Contains(t, artifact.Names(res.Artifacts), "host-services.log")
	})

	t.Run("failure never fails the run", func(t *testing.T) {
		rt := &memRuntime{refs: []runtime.ContainerRef{dbRef}}
		res, err := New(rt, nil,
			WithWorkDir(t.TempDir()),
			WithHostServices(true),
			WithFactory(hostFactory{DefaultFactory: collector.NewDefaultFactory(rt), err: errors.New("no bus")}),
		).Run(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Close() })
		assert.NotContains(t, artifact.Names(res.Artifacts), "host-services.log")
	})
}

func TestLogsNotCompleteError(t *testing.T) {
	cause := errors.New("exec failed")
	err := &LogsNotCompleteError{Failures: []CollectionError{
		{Container: runtime.ContainerRef{Name: "wacore_1"}, Err: cause},
	}}

	assert.Equal(t, "Some logs could not be obtained:\nContainer: wacore_1\nException: exec failed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperrors.ErrCodeLogsNotComplete, apperrors.CodeOf(err))

	wrapped := fmt.Errorf("run: %w", err)
	assert.Equal(t, apperrors.ErrCodeLogsNotComplete, apperrors.CodeOf(wrapped))
}
