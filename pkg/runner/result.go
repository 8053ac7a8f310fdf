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
	"os"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/runtime"
	"github.com/whatsapp/wadebug/pkg/supportinfo"
	"github.com/whatsapp/wadebug/pkg/timewindow"
)

// Result is the outcome of a run.
type Result struct {
	RunID      string
	Window     timewindow.Window
	Containers []runtime.ContainerRef
	// Artifacts holds the files of every successful container in inventory
	// order, followed by support info and host services when present.
	Artifacts     []artifact.Artifact
	Failures      []CollectionError
	SupportInfo   supportinfo.Outcome
	ArchivePath   string
	Archive       *os.File
	ArchiveDigest digest.Digest
	Duration      time.Duration
	// Published is the location the archive was published to, if any.
	Published string
}

// Complete reports whether every container was collected.
func (r *Result) Complete() bool {
	return len(r.Failures) == 0
}

// Close releases the archive handle.
func (r *Result) Close() error {
	if r == nil || r.Archive == nil {
		return nil
	}
	err := r.Archive.Close()
	r.Archive = nil
	return err
}

// ContainerStatus values of ContainerSummary.
const (
	StatusCollected = "collected"
	StatusFailed    = "failed"
)

// Summary is the serializable view of a Result.
type Summary struct {
	RunID       string             `json:"runId" yaml:"runId"`
	Window      WindowSummary      `json:"window" yaml:"window"`
	Containers  []ContainerSummary `json:"containers" yaml:"containers"`
	Artifacts   []string           `json:"artifacts" yaml:"artifacts"`
	SupportInfo string             `json:"supportInfo" yaml:"supportInfo"`
	Archive     string             `json:"archive,omitempty" yaml:"archive,omitempty"`
	Digest      string             `json:"digest,omitempty" yaml:"digest,omitempty"`
	Published   string             `json:"published,omitempty" yaml:"published,omitempty"`
	Complete    bool               `json:"complete" yaml:"complete"`
	Duration    string             `json:"duration" yaml:"duration"`
}

// WindowSummary is the collected time range in RFC 3339.
type WindowSummary struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// ContainerSummary is the per-container outcome.
type ContainerSummary struct {
	Name   string `json:"name" yaml:"name"`
	Image  string `json:"image" yaml:"image"`
	Role   string `json:"role" yaml:"role"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary returns the serializable view of r.
func (r *Result) Summary() Summary {
	failed := make(map[string]error, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.Container.ID] = f.Err
	}

	containers := make([]ContainerSummary, 0, len(r.Containers))
	for _, c := range r.Containers {
		cs := ContainerSummary{
			Name:   c.Name,
			Image:  c.Image,
			Role:   c.Role.String(),
			Status: StatusCollected,
		}
		if err, ok := failed[c.ID]; ok {
			cs.Status = StatusFailed
			cs.Error = err.Error()
		}
		containers = append(containers, cs)
	}

	s := Summary{
		RunID: r.RunID,
		Window: WindowSummary{
			Start: r.Window.Start.Format(time.RFC3339),
			End:   r.Window.End.Format(time.RFC3339),
		},
		Containers:  containers,
		Artifacts:   artifact.Names(r.Artifacts),
		SupportInfo: string(r.SupportInfo),
		Archive:     r.ArchivePath,
		Published:   r.Published,
		Complete:    r.Complete(),
		Duration:    r.Duration.Round(time.Millisecond).String(),
	}
	if r.ArchiveDigest != "" {
		s.Digest = r.ArchiveDigest.String()
	}
	return s
}
