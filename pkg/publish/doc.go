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

// Package publish sends a finished log archive to a registry or a bucket.
//
// Supported targets:
//
//	oci://ghcr.io/acme/wadebug[:tag]   pushed with package oci; the run ID is the default tag
//	s3://bucket[/prefix]               uploaded with package objectstore as <prefix>/<runID>/<archive>
//
// Usage:
//
//	t, err := publish.ParseTarget(flagValue)
//	if err != nil {
//	    return err
//	}
//	location, err := publish.New(publish.WithPlainHTTP(true)).Publish(ctx, t, publish.Request{
//	    ArchivePath: res.ArchivePath,
//	    RunID:       res.RunID,
//	    Digest:      res.ArchiveDigest.String(),
//	})
package publish
