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

// Package objectstore uploads log bundles to S3-compatible storage.
//
// Connection settings come from the environment:
//
//	WADEBUG_S3_ENDPOINT    host[:port], defaults to s3.amazonaws.com
//	WADEBUG_S3_ACCESS_KEY  required
//	WADEBUG_S3_SECRET_KEY  required
//	WADEBUG_S3_REGION      defaults to us-east-1
//	WADEBUG_S3_USE_SSL     defaults to true
//
// Upload creates the bucket when it does not exist yet.
package objectstore
