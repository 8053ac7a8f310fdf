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

// Package collector gathers the per-container and per-host artifacts of a
// log collection run.
//
// # Container Artifacts
//
// ContainerCollector writes, for one container and one time window:
//   - <name>-container.log: stdout and stderr within the window
//   - <name>-inspect.log: the inspect document as indented JSON
//   - <name>-coredump.log: core dump logs, core-role containers only
//   - <name>-web.log and <name>-error.log: web server logs, web-role containers only
//
// Core dumps and web files are optional. When the runtime reports them as
// not found, no artifact is produced and no error is returned. Every other
// failure is returned to the caller along with the artifacts already written,
// so the caller decides whether to continue with the next container.
//
// # Host Artifacts
//
// HostCollector writes host-services.log with the systemd properties of the
// container engine units. See package systemd.
//
// # Factory Pattern
//
// The Factory interface abstracts collector creation so a run can be driven
// against fake runtimes in tests:
//
//	factory := collector.NewDefaultFactory(rt)
//	cc := factory.CreateContainerCollector(artifact.NewWriter(dir))
//
//	artifacts, err := cc.Collect(ctx, ref, window)
//	if err != nil {
//	    slog.Warn("container collection failed", "container", ref.Name, "error", err)
//	}
package collector
