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

package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/runtime"
	"github.com/whatsapp/wadebug/pkg/timewindow"
)

// Artifact name suffixes appended to the container name.
const (
	SuffixContainerLog = "-container.log"
	SuffixInspect      = "-inspect.log"
	SuffixCoreDump     = "-coredump.log"
	SuffixWebLog       = "-web.log"
	SuffixWebErrorLog  = "-error.log"
)

// InspectIndent is the JSON indentation of inspect artifacts.
const InspectIndent = 2

// FileSource is a file copied out of a container filesystem.
type FileSource struct {
	Dir    string
	File   string
	Suffix string
	Kind   artifact.Kind
}

// DefaultWebFiles are copied from web-role containers when present.
var DefaultWebFiles = []FileSource{
	{Dir: "/var/log/whatsapp", File: "web.log", Suffix: SuffixWebLog, Kind: artifact.KindWebLog},
	{Dir: "/var/log/lighttpd", File: "error.log", Suffix: SuffixWebErrorLog, Kind: artifact.KindWebErrorLog},
}

// ContainerCollector gathers the artifacts of one container.
type ContainerCollector struct {
	Runtime  runtime.Runtime
	Writer   *artifact.Writer
	WebFiles []FileSource
}

// Collect writes the logs and inspect snapshot of c, plus core dumps for
// core-role containers and web files for web-role containers. Missing core
// dumps and missing web files produce no artifact. Any other failure is
// returned together with the artifacts already written.
func (cc *ContainerCollector) Collect(ctx context.Context, c runtime.ContainerRef, w timewindow.Window) ([]artifact.Artifact, error) {
	since, until := w.Unix()
	out := make([]artifact.Artifact, 0, 4)

	logs, err := cc.Runtime.Logs(ctx, c, since, until)
	if err != nil {
		return out, fmt.Errorf("logs: %w", err)
	}
	a, err := cc.Writer.WriteBytes(c.Name+SuffixContainerLog, artifact.KindContainerLog, logs)
	if err != nil {
		return out, err
	}
	out = append(out, a)

	info, err := cc.Runtime.Inspect(ctx, c)
	if err != nil {
		return out, fmt.Errorf("inspect: %w", err)
	}
	a, err = cc.Writer.WriteJSON(c.Name+SuffixInspect, artifact.KindInspect, info, InspectIndent)
	if err != nil {
		return out, err
	}
	out = append(out, a)

	if c.Role.Has(runtime.RoleCore) {
		a, ok, err := cc.coreDumps(ctx, c)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, a)
		}
	}

	if c.Role.Has(runtime.RoleWeb) {
		for _, src := range cc.WebFiles {
			a, ok, err := cc.copyFile(ctx, c, src)
			if err != nil {
				return out, err
			}
			if ok {
				out = append(out, a)
			}
		}
	}

	return out, nil
}

func (cc *ContainerCollector) coreDumps(ctx context.Context, c runtime.ContainerRef) (artifact.Artifact, bool, error) {
	dump, err := cc.Runtime.CoreDumps(ctx, c)
	if errors.Is(err, runtime.ErrNotFound) {
		slog.Debug("core dumps unavailable", "container", c.Name)
		return artifact.Artifact{}, false, nil
	}
	if err != nil {
		return artifact.Artifact{}, false, fmt.Errorf("core dumps: %w", err)
	}
	if dump == "" {
		return artifact.Artifact{}, false, nil
	}

	a, err := cc.Writer.WriteText(c.Name+SuffixCoreDump, artifact.KindCoreDump, dump)
	if err != nil {
		return artifact.Artifact{}, false, err
	}
	return a, true, nil
}

func (cc *ContainerCollector) copyFile(ctx context.Context, c runtime.ContainerRef, src FileSource) (artifact.Artifact, bool, error) {
	data, err := cc.Runtime.CopyFile(ctx, c, src.Dir, src.File)
	if errors.Is(err, runtime.ErrNotFound) {
		slog.Debug("file not present in container", "container", c.Name, "dir", src.Dir, "file", src.File)
		return artifact.Artifact{}, false, nil
	}
	if err != nil {
		return artifact.Artifact{}, false, fmt.Errorf("copy %s/%s: %w", src.Dir, src.File, err)
	}

	a, err := cc.Writer.WriteBytes(c.Name+src.Suffix, src.Kind, data)
	if err != nil {
		return artifact.Artifact{}, false, err
	}
	return a, true, nil
}
