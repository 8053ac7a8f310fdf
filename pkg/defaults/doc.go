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

// Package defaults provides centralized configuration constants for wadebug.
//
// This package defines file names, the log collection window, and timeout values
// used across the codebase. Centralizing these values ensures consistency
// and makes tuning easier.
//
// # Categories
//
//   - Output layout: output folder, archive base name, support info file
//   - Log window: duration and timezone of the container log window
//   - Docker timeouts: For container runtime API operations
//   - HTTP client timeouts: For the support info endpoint
//   - Publish timeouts: For OCI registry and object storage uploads
//
// # Usage
//
//	import "github.com/whatsapp/wadebug/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.DockerAPITimeout)
//	defer cancel()
package defaults
