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

package defaults

import "time"

// Output layout.
const (
	// OutputFolder is the directory, relative to the working directory,
	// that receives every collected file.
	OutputFolder = "wadebug_logs"

	// ArchiveBaseName is the base name of the zip archive built from OutputFolder.
	ArchiveBaseName = "wadebug_logs"

	// ArchiveExtension is appended to ArchiveBaseName.
	ArchiveExtension = ".zip"

	// SupportInfoFile is the file name of the support info dump.
	SupportInfoFile = "support-info.log"

	// HostServicesFile is the file name of the host systemd snapshot.
	HostServicesFile = "host-services.log"

	// ConfigFile is the default configuration file name.
	ConfigFile = "wadebug.conf.yml"

	// EnvFile is the default dotenv file name.
	EnvFile = ".env"
)

// Log window.
const (
	// LogDuration is the length of the container log window.
	LogDuration = 3 * time.Hour

	// SinceFormat is the default layout of a user supplied anchor time.
	SinceFormat = "%Y-%m-%d %H:%M:%S"
)

// LogLocation is the timezone of platform container logs.
var LogLocation = time.UTC

// Collection tuning.
const (
	// Workers is the default number of containers collected concurrently.
	// One keeps collection sequential.
	Workers = 1

	// DockerQPS is the default Docker API request rate.
	DockerQPS = 20

	// DockerBurst is the default Docker API burst size.
	DockerBurst = 40
)

// Docker timeouts for container runtime operations.
const (
	// DockerAPITimeout bounds a single inspect, list or copy call.
	DockerAPITimeout = 30 * time.Second

	// DockerLogsTimeout bounds a container log fetch, which may stream a large window.
	DockerLogsTimeout = 2 * time.Minute

	// DockerExecTimeout bounds the core dump exec.
	DockerExecTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Publish timeouts.
const (
	// PublishTimeout bounds an archive upload to a registry or bucket.
	PublishTimeout = 5 * time.Minute
)
