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

// Package cli implements the wadebug command-line interface.
//
// # Commands
//
// logs - Collect container diagnostics:
//
//	wadebug logs [--since "2024-05-01 10:00:00"] [--duration 3h] [--workers 4]
//
// Lists the running WhatsApp Business API containers and writes their output,
// inspect data, core dumps and web logs to wadebug_logs/, adds support info
// when the webapp API is configured, and zips the folder to wadebug_logs.zip.
// A run summary is printed to stdout, also when some containers failed.
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--debug        Same as --log-level=debug
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Output Formats
//
// YAML (default):
//   - Human-readable, preserves structure
//
// JSON:
//   - Machine-readable, for scripting
//
// Table:
//   - FIELD/VALUE rows for terminal viewing
//
// # Configuration
//
// The webapp section of wadebug.conf.yml enables support info collection:
//
//	webapp:
//	  baseUrl: https://wa.example.com
//	  user: admin
//	  password: secret
//
// WADEBUG_WEBAPP_* variables, read from the environment or from .env,
// override the file. Publishing to S3 reads WADEBUG_S3_* variables.
// A configuration that cannot be loaded is logged and only disables
// support info.
//
// # Exit Status
//
// The command exits 1 on any error, including an incomplete run. The
// archive of an incomplete run is still written and published.
package cli
