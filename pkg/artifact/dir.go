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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// EnsureOutputDirectory checks that workDir is readable and creates the
// output directory inside it. An existing directory is accepted; any other
// existing file at that path is a write error.
func EnsureOutputDirectory(workDir, name string) (string, error) {
	if err := checkReadable(workDir); err != nil {
		return "", apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"Access error: Cannot read from current directory", err,
			map[string]any{"dir": workDir})
	}

	dir := filepath.Join(workDir, name)
	err := os.Mkdir(dir, 0o755)
	if errors.Is(err, fs.ErrExist) {
		err = checkDir(dir)
	}
	if err != nil {
		return "", apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"Access error: Cannot write logs to current directory", err,
			map[string]any{"dir": dir})
	}
	return dir, nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func checkReadable(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Clean removes everything inside dir, keeping dir itself.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"failed to read output directory", err, map[string]any{"dir": dir})
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
				"failed to remove stale output", err, map[string]any{"path": e.Name()})
		}
	}
	return nil
}
