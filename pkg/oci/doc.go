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

// Package oci pushes log bundles to OCI registries using ORAS.
//
// The archive becomes the single layer of an OCI 1.1 artifact manifest:
//
//	ref, err := oci.ParseReference("oci://ghcr.io/acme/wadebug:ticket-42")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Push(ctx, "wadebug_logs.zip", oci.PushOptions{Reference: ref})
//
// # Authentication
//
// Credentials are read from the Docker configuration (~/.docker/config.json)
// through the ORAS credentials package. Anonymous pushes are attempted when
// no configuration exists.
//
// # Artifact Type
//
// Manifests carry the artifact type "application/vnd.whatsapp.wadebug.logs"
// and the layer is typed "application/zip", so registries never treat the
// bundle as a runnable image.
package oci
