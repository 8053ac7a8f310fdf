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

// Package runner orchestrates a log collection run.
//
// # Run Flow
//
//  1. Check the working directory and create the output folder
//  2. Remove files of previous runs, unless WithKeepStale is set
//  3. Resolve the time window from the anchor, or from the current time
//  4. List the managed containers
//  5. Collect every container, at most WithWorkers at a time
//  6. Collect support info when the webapp section is configured
//  7. Snapshot host services when WithHostServices is set
//  8. Zip the output folder and digest the archive
//
// Steps 1, 3 and 4 abort the run. A failing container is recorded and the
// run moves on to the next one.
//
// # Partial Failures
//
// When at least one container fails, Run still archives everything that was
// collected and returns both the Result and a *LogsNotCompleteError:
//
//	res, err := runner.New(rt, cfg).Run(ctx)
//	var incomplete *runner.LogsNotCompleteError
//	switch {
//	case errors.As(err, &incomplete):
//	    // res.ArchivePath holds the partial bundle
//	case err != nil:
//	    return err
//	}
//	defer res.Close()
//
// # Metrics
//
// Run records Prometheus metrics in the default registry:
//   - wadebug_run_duration_seconds
//   - wadebug_container_collections_total{status}
//   - wadebug_container_collect_duration_seconds{role}
//   - wadebug_artifacts_collected
//   - wadebug_support_info_total{outcome}
package runner
