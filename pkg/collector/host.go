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
	"fmt"

	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/collector/systemd"
	"github.com/whatsapp/wadebug/pkg/defaults"
)

// UnitSource returns systemd unit snapshots.
type UnitSource interface {
	Collect(ctx context.Context) ([]systemd.Unit, error)
}

// HostCollector snapshots the host services the container engine runs on.
type HostCollector struct {
	Units  UnitSource
	Writer *artifact.Writer
}

// Collect writes the unit snapshot as indented JSON.
func (h *HostCollector) Collect(ctx context.Context) (artifact.Artifact, error) {
	units, err := h.Units.Collect(ctx)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("host services: %w", err)
	}
	return h.Writer.WriteJSON(defaults.HostServicesFile, artifact.KindHostServices, units, 2)
}
