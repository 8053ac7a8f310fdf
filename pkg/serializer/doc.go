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

// Package serializer prints run summaries as JSON, YAML or a table.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, two-space indented
//   - Standard encoding/json package
//
// YAML:
//   - Human-readable with preserved structure
//   - gopkg.in/yaml.v3 package
//
// Table:
//   - FIELD/VALUE rows with flattened keys such as containers.[0].status
//   - Keys follow the json tags of the value
//
// # Usage
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, summaryPath)
//	defer w.Close()
//	if err := w.Serialize(ctx, res.Summary()); err != nil {
//	    return err
//	}
//
// Unknown formats fall back to JSON with a warning.
package serializer
