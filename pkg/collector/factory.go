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
	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/collector/systemd"
	"github.com/whatsapp/wadebug/pkg/runtime"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateContainerCollector(w *artifact.Writer) *ContainerCollector
	CreateHostCollector(w *artifact.Writer) *HostCollector
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	Runtime         runtime.Runtime
	WebFiles        []FileSource
	SystemDServices []string
}

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory(rt runtime.Runtime) *DefaultFactory {
	return &DefaultFactory{
		Runtime:         rt,
		WebFiles:        DefaultWebFiles,
		SystemDServices: systemd.DefaultServices,
	}
}

// CreateContainerCollector creates a per-container collector writing to w.
func (f *DefaultFactory) CreateContainerCollector(w *artifact.Writer) *ContainerCollector {
	return &ContainerCollector{
		Runtime:  f.Runtime,
		Writer:   w,
		WebFiles: f.WebFiles,
	}
}

// CreateHostCollector creates a systemd host services collector writing to w.
func (f *DefaultFactory) CreateHostCollector(w *artifact.Writer) *HostCollector {
	return &HostCollector{
		Units:  systemd.NewCollector(f.SystemDServices...),
		Writer: w,
	}
}
