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

// Package archive packs the output directory into the zip bundle handed to support.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// ModTime is stamped on every entry so identical inputs yield identical archives.
var ModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip packs the contents of dir into dest and returns dest opened for
// reading. Entry names are relative to dir and appear in lexical order.
// dest is replaced atomically.
func Zip(ctx context.Context, dir, dest string) (*os.File, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"failed to create archive", err, map[string]any{"path": dest})
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	entries, err := write(ctx, tmp, dir, dest)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close archive: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"failed to move archive into place", err, map[string]any{"path": dest})
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen archive: %w", err)
	}

	slog.Debug("archive written", "path", dest, "entries", entries)
	return f, nil
}

func write(ctx context.Context, w io.Writer, dir, dest string) (int, error) {
	zw := zip.NewWriter(w)
	absDest, _ := filepath.Abs(dest)
	entries := 0

	// WalkDir visits entries in lexical order.
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk error: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absDest {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		name := filepath.ToSlash(relPath)

		if d.IsDir() {
			_, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name + "/",
				Method:   zip.Store,
				Modified: ModTime,
			})
			return err
		}
		if !d.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", path)
			return nil
		}

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: ModTime,
		}
		header.SetMode(0o644)

		writer, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create zip entry: %w", err)
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		if _, err := io.Copy(writer, file); err != nil {
			return fmt.Errorf("failed to copy file content: %w", err)
		}
		entries++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return 0, apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"failed to archive output", err, map[string]any{"dir": dir})
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return entries, nil
}

// Digest returns the sha256 digest of the content of f and rewinds it.
func Digest(f io.ReadSeeker) (digest.Digest, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind archive: %w", err)
	}
	d, err := digest.Canonical.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to digest archive: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind archive: %w", err)
	}
	return d, nil
}
