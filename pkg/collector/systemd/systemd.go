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

package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultServices are the units whose state matters to the platform containers.
var DefaultServices = []string{
	"docker.service",
	"containerd.service",
}

var (
	// Keys to filter out from systemd properties for privacy/security or noise reduction
	filterOutKeys = []string{
		"AllowedCPUs",
		"AllowedMemoryNodes",
		"Asserts",
		"BPFProgram",
		"BusName",
		"Id",
		"*Credential*",
		"Environment*",
	}
)

// Unit is the property snapshot of one systemd unit.
type Unit struct {
	Name       string         `json:"name" yaml:"name"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// propertyReader is the subset of the systemd D-Bus connection used by Collector.
type propertyReader interface {
	GetAllPropertiesContext(ctx context.Context, unit string) (map[string]any, error)
	Close()
}

// Collector gathers unit properties from systemd over D-Bus.
type Collector struct {
	Services []string

	connect func(ctx context.Context) (propertyReader, error)
}

// NewCollector returns a Collector for the given units, or DefaultServices when none are given.
func NewCollector(services ...string) *Collector {
	if len(services) == 0 {
		services = DefaultServices
	}
	return &Collector{Services: services}
}

func dial(ctx context.Context) (propertyReader, error) {
	return dbus.NewSystemdConnectionContext(ctx)
}

// Collect returns one Unit per configured service in configuration order.
func (s *Collector) Collect(ctx context.Context) ([]Unit, error) {
	slog.Info("collecting systemd service properties", "services", s.Services)

	connect := s.connect
	if connect == nil {
		connect = dial
	}

	conn, err := connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	units := make([]Unit, 0, len(s.Services))
	for _, service := range s.Services {
		data, err := conn.GetAllPropertiesContext(ctx, service)
		if err != nil {
			return nil, fmt.Errorf("failed to get unit properties for %s: %w", service, err)
		}

		units = append(units, Unit{
			Name:       service,
			Properties: FilterOut(data, filterOutKeys),
		})
	}

	return units, nil
}

// FilterOut returns a copy of props without keys matching any of the patterns.
// Patterns support '*' wildcards, e.g. "*Credential*".
func FilterOut(props map[string]any, patterns []string) map[string]any {
	result := make(map[string]any, len(props))
	for key, value := range props {
		omit := false
		for _, pattern := range patterns {
			if matchesPattern(key, pattern) {
				omit = true
				break
			}
		}
		if !omit {
			result[key] = value
		}
	}
	return result
}

// Keys returns the property names of u in sorted order.
func (u Unit) Keys() []string {
	keys := make([]string, 0, len(u.Properties))
	for k := range u.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchesPattern checks if a key matches a wildcard pattern.
// Supports multiple wildcard segments, e.g., "a*b*c" matches "aXbYc".
func matchesPattern(key, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}

	segments := strings.Split(pattern, "*")
	pos := 0
	for i, segment := range segments {
		if segment == "" {
			continue
		}

		if i == 0 {
			if !strings.HasPrefix(key, segment) {
				return false
			}
			pos = len(segment)
			continue
		}

		if i == len(segments)-1 {
			return len(key)-pos >= len(segment) && strings.HasSuffix(key[pos:], segment)
		}

		idx := strings.Index(key[pos:], segment)
		if idx == -1 {
			return false
		}
		pos += idx + len(segment)
	}

	return true
}
