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

package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	t.Run("bytes", func(t *testing.T) {
		a, err := w.WriteBytes("wacore_1-container.log", KindContainerLog, []byte{0x00, 0x01, 'x'})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "wacore_1-container.log"), a.Path)
		assert.Equal(t, KindContainerLog, a.Kind)
		assert.Equal(t, int64(3), a.Size)

		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x01, 'x'}, data)
	})

	t.Run("json", func(t *testing.T) {
		a, err := w.WriteJSON("support-info.log", KindSupportInfo, map[string]any{"a": 1}, 2)
		require.NoError(t, err)

		data, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))

		var v map[string]any
		require.NoError(t, json.Unmarshal(data, &v))
	})

	t.Run("unserializable json", func(t *testing.T) {
		_, err := w.WriteJSON("bad.log", KindInspect, map[string]any{"c": make(chan int)}, 1)
		assert.Error(t, err)
	})

	t.Run("names", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, Names([]Artifact{{Name: "a"}, {Name: "b"}}))
	})
}

func TestEnsureOutputDirectory(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		work := t.TempDir()
		dir, err := EnsureOutputDirectory(work, "wadebug_logs")
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("existing directory is accepted", func(t *testing.T) {
		work := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(work, "wadebug_logs"), 0o755))
		_, err := EnsureOutputDirectory(work, "wadebug_logs")
		require.NoError(t, err)
		_, err = EnsureOutputDirectory(work, "wadebug_logs")
		require.NoError(t, err)
	})

	t.Run("missing working directory", func(t *testing.T) {
		_, err := EnsureOutputDirectory(filepath.Join(t.TempDir(), "gone"), "wadebug_logs")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
		assert.Contains(t, err.Error(), "Cannot read from current directory")
	})

	t.Run("output path is a file", func(t *testing.T) {
		work := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(work, "wadebug_logs"), nil, 0o644))
		_, err := EnsureOutputDirectory(work, filepath.Join("wadebug_logs", "nested"))
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
		assert.Contains(t, err.Error(), "Cannot write logs to current directory")
	})

	t.Run("existing regular file with the output name", func(t *testing.T) {
		work := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(work, "wadebug_logs"), []byte("x"), 0o644))
		_, err := EnsureOutputDirectory(work, "wadebug_logs")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
		assert.Contains(t, err.Error(), "Cannot write logs to current directory")
	})

	t.Run("read-only working directory", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced")
		}
		work := t.TempDir()
		require.NoError(t, os.Chmod(work, 0o555))
		t.Cleanup(func() { _ = os.Chmod(work, 0o755) })

		_, err := EnsureOutputDirectory(work, "wadebug_logs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot write logs to current directory")
	})
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.log"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deeper"), 0o755))

	require.NoError(t, Clean(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, dir)
}

func TestClean_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wadebug_logs")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := Clean(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileAccess))
}
