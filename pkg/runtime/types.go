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

// Package runtime describes platform containers and the runtime operations
// log collection needs.
package runtime

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned, possibly wrapped, when a container, file or
// core dump does not exist. Callers treat it as absence, not failure.
var ErrNotFound = errors.New("not found")

// Role is a bit set describing what a platform container runs.
type Role uint8

const (
	// RoleGeneric marks any managed platform container.
	RoleGeneric Role = 1 << iota
	// RoleCore marks a core app container that may produce core dumps.
	RoleCore
	// RoleWeb marks a web app container with filesystem logs.
	RoleWeb
)

// Has reports whether every bit of other is set in r.
func (r Role) Has(other Role) bool {
	return other != 0 && r&other == other
}

// String renders the role as a "+" joined list, e.g. "generic+core".
func (r Role) String() string {
	if r == 0 {
		return "none"
	}
	parts := make([]string, 0, 3)
	if r.Has(RoleGeneric) {
		parts = append(parts, "generic")
	}
	if r.Has(RoleCore) {
		parts = append(parts, "core")
	}
	if r.Has(RoleWeb) {
		parts = append(parts, "web")
	}
	return strings.Join(parts, "+")
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ContainerRef identifies a running platform container. It is read-only to
// consumers.
type ContainerRef struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Image string `json:"image" yaml:"image"`
	Role  Role   `json:"role" yaml:"role"`
}

// Runtime is the container runtime surface the collectors need.
// Implementations must be safe for concurrent use.
type Runtime interface {
	// ListManagedContainers returns running platform containers in a stable order.
	ListManagedContainers(ctx context.Context) ([]ContainerRef, error)

	// Logs returns the container output between the two epoch second bounds.
	Logs(ctx context.Context, c ContainerRef, since, until int64) ([]byte, error)

	// Inspect returns a JSON-serializable metadata snapshot of the container.
	Inspect(ctx context.Context, c ContainerRef) (any, error)

	// CoreDumps returns the core dump log content, or ErrNotFound.
	CoreDumps(ctx context.Context, c ContainerRef) (string, error)

	// CopyFile returns the content of filename inside dir in the container,
	// or ErrNotFound when either is missing.
	CopyFile(ctx context.Context, c ContainerRef, dir, filename string) ([]byte, error)
}
