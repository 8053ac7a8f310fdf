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

// Package artifact models the files produced by a collection run and the
// output directory they are written to.
package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a collected file.
type Kind string

const (
	KindContainerLog Kind = "container-log"
	KindInspect      Kind = "inspect"
	KindCoreDump     Kind = "coredump"
	KindWebLog       Kind = "web-log"
	KindWebErrorLog  Kind = "web-error-log"
	KindSupportInfo  Kind = "support-info"
	KindHostServices Kind = "host-services"
)

// Artifact is one produced file. It is never mutated after creation.
type Artifact struct {
	// Name is the logical file name inside the output directory.
	Name string `json:"name" yaml:"name"`
	// Path is the file location on disk.
	Path string `json:"path" yaml:"path"`
	// Kind classifies the content.
	Kind Kind `json:"kind" yaml:"kind"`
	// Size is the number of bytes written.
	Size int64 `json:"size" yaml:"size"`
}

// Writer writes artifacts into a single output directory.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteBytes writes data verbatim.
func (w *Writer) WriteBytes(name string, kind Kind, data []byte) (Artifact, error) {
	p := filepath.Join(w.Dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil { //nolint:gosec // logs are shared with support
		return Artifact{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	slog.Debug("artifact written", "artifact", name, "kind", kind, "bytes", len(data))
	return Artifact{Name: name, Path: p, Kind: kind, Size: int64(len(data))}, nil
}

// WriteText writes s as text.
func (w *Writer) WriteText(name string, kind Kind, s string) (Artifact, error) {
	return w.WriteBytes(name, kind, []byte(s))
}

// WriteJSON serializes v as indented JSON.
func (w *Writer) WriteJSON(name string, kind Kind, v any, indent int) (Artifact, error) {
	data, err := json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to serialize %s: %w", name, err)
	}
	return w.WriteBytes(name, kind, append(data, '\n'))
}

// Names returns the artifact names in order.
func Names(list []Artifact) []string {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	return names
}
