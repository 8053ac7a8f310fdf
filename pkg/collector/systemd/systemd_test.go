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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	units  map[string]map[string]any
	closed bool
}

func (f *fakeBus) GetAllPropertiesContext(_ context.Context, unit string) (map[string]any, error) {
	props, ok := f.units[unit]
	if !ok {
		return nil, errors.New("unit not loaded")
	}
	return props, nil
}

func (f *fakeBus) Close() { f.closed = true }

func withBus(c *Collector, bus *fakeBus) *Collector {
	c.connect = func(context.Context) (propertyReader, error) { return bus, nil }
	return c
}

func TestNewCollector_Defaults(t *testing.T) {
	assert.Equal(t, DefaultServices, NewCollector().Services)
	assert.Equal(t, []string{"a.service"}, NewCollector("a.service").Services)
}

func TestCollector_Collect(t *testing.T) {
	bus := &fakeBus{units: map[string]map[string]any{
		"docker.service": {
			"ActiveState":            "active",
			"MainPID":                uint32(812),
			"LoadCredential":         "secret",
			"Environment":            []string{"TOKEN=x"},
			"EnvironmentFiles":       "/etc/default/docker",
			"Id":                     "docker.service",
			"NRestarts":              uint32(0),
			"ExecMainStartTimestamp": uint64(1),
		},
		"containerd.service": {"ActiveState": "failed"},
	}}

	units, err := withBus(NewCollector(), bus).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.True(t, bus.closed)

	assert.Equal(t, "docker.service", units[0].Name)
	assert.Equal(t, "active", units[0].Properties["ActiveState"])
	assert.NotContains(t, units[0].Properties, "LoadCredential")
	assert.NotContains(t, units[0].Properties, "Environment")
	assert.NotContains(t, units[0].Properties, "EnvironmentFiles")
	assert.NotContains(t, units[0].Properties, "Id")
	assert.Equal(t, []string{"ActiveState", "ExecMainStartTimestamp", "MainPID", "NRestarts"}, units[0].Keys())

	assert.Equal(t, "containerd.service", units[1].Name)
	assert.Equal(t, "failed", units[1].Properties["ActiveState"])
}

func TestCollector_Collect_Errors(t *testing.T) {
	t.Run("connection failure", func(t *testing.T) {
		c := NewCollector()
		c.connect = func(context.Context) (propertyReader, error) { return nil, errors.New("no bus") }
		_, err := c.Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to systemd")
	})

	t.Run("unknown unit", func(t *testing.T) {
		bus := &fakeBus{units: map[string]map[string]any{}}
		_, err := withBus(NewCollector("nope.service"), bus).Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.service")
		assert.True(t, bus.closed)
	})
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		key     string
		pattern string
		want    bool
	}{
		{"Id", "Id", true},
		{"Ids", "Id", false},
		{"LoadCredential", "*Credential*", true},
		{"CredentialSecret", "*Credential*", true},
		{"EnvironmentFiles", "Environment*", true},
		{"PassEnvironment", "Environment*", false},
		{"MemoryLimit", "*Limit", true},
		{"MemoryLimitMax", "*Limit", false},
		{"aXbYc", "a*b*c", true},
		{"aXcYb", "a*b*c", false},
		{"ab", "ab*b", false},
		{"anything", "*", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.key, tt.pattern))
		})
	}
}
