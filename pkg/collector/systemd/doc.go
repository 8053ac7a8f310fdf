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

// Package systemd snapshots the systemd units the platform containers depend on.
//
// The container engine's own health is often the reason container logs are
// missing or truncated, so an incomplete log bundle is easier to diagnose when
// it carries the state of the engine units next to it.
//
// # Usage
//
//	collector := systemd.NewCollector() // docker.service, containerd.service
//
//	units, err := collector.Collect(ctx)
//	if err != nil {
//	    return err
//	}
//
//	for _, u := range units {
//	    fmt.Printf("%s: %v\n", u.Name, u.Properties["ActiveState"])
//	}
//
// # Filtering
//
// Properties that carry credentials or environment values are dropped before
// they reach the bundle. Patterns accept '*' wildcards:
//
//	systemd.FilterOut(props, []string{"*Credential*", "Environment*"})
//
// # systemd Integration
//
// Properties are read over the system D-Bus via go-systemd. Hosts without
// systemd or without access to the bus return an error from Collect.
package systemd
