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

// Package logging configures the slog default logger for wadebug.
//
// Records are written to stderr as JSON with the module and version
// attached, so they never mix with the run summary printed on stdout:
//
//	{"time":"2026-01-02T10:30:00Z","level":"INFO","msg":"archive written","module":"wadebug","version":"v1.2.0","path":"wadebug_logs.zip"}
//
// Debug level adds the source location of every record.
//
// # Log Levels
//
// Level names are case-insensitive: debug, info (default), warn or
// warning, error. Anything else maps to info.
//
// The CLI passes --log-level to SetDefaultStructuredLoggerWithLevel. The
// flag also reads LOG_LEVEL:
//
//	LOG_LEVEL=debug wadebug logs
//
// # Usage
//
//	logging.SetDefaultStructuredLoggerWithLevel("wadebug", version, "debug")
//	slog.Info("collecting container", "name", ref.Name, "role", ref.Role)
package logging
