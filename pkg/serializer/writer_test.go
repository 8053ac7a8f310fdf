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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type testContainer struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type testSummary struct {
	RunID      string          `json:"runId" yaml:"runId"`
	Containers []testContainer `json:"containers" yaml:"containers"`
	Complete   bool            `json:"complete" yaml:"complete"`
	Labels     map[string]string
	Parent     *testSummary `json:"parent,omitempty"`
}

func sample() testSummary {
	return testSummary{
		RunID: "run-1",
		Containers: []testContainer{
			{Name: "wacore", Status: "collected"},
			{Name: "waweb", Status: "failed", Error: "boom"},
		},
		Complete: false,
		Labels:   map[string]string{"host": "h1"},
	}
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatJSON, &buf).Serialize(context.Background(), sample()))

	var got testSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample(), got)
	assert.Contains(t, buf.String(), "\n  \"runId\": \"run-1\"")
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatYAML, &buf).Serialize(context.Background(), sample()))

	var got testSummary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Containers, 2)
	assert.Equal(t, "boom", got.Containers[1].Error)
}

func TestWriter_SerializeTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), sample()))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "FIELD"))

	tests := []struct {
		key   string
		value string
	}{
		{"runId", "run-1"},
		{"containers.[0].name", "wacore"},
		{"containers.[1].status", "failed"},
		{"containers.[1].error", "boom"},
		{"complete", "false"},
		{"Labels.host", "h1"},
		{"parent", "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			found := false
			for _, line := range lines {
				fields := strings.Fields(line)
				if len(fields) == 2 && fields[0] == tt.key {
					assert.Equal(t, tt.value, fields[1])
					found = true
				}
			}
			assert.True(t, found, "missing row %q in\n%s", tt.key, out)
		})
	}
}

func TestWriter_SerializeTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), struct{}{}))
	assert.Equal(t, "<empty>\n", buf.String())
}

func TestWriter_SerializeTable_Scalar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), 42))
	assert.Contains(t, buf.String(), "value")
	assert.Contains(t, buf.String(), "42")
}

func TestWriter_UnsupportedValue(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriter(FormatJSON, &buf).Serialize(context.Background(), make(chan int))
	assert.Error(t, err)
}

func TestFormat_IsUnknown(t *testing.T) {
	tests := []struct {
		format Format
		want   bool
	}{
		{FormatJSON, false},
		{FormatYAML, false},
		{FormatTable, false},
		{"xml", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.IsUnknown())
		})
	}
	assert.Equal(t, []string{"json", "yaml", "table"}, SupportedFormats())
}

func TestNewWriter_Defaults(t *testing.T) {
	w := NewWriter("xml", nil)
	assert.Equal(t, FormatJSON, w.format)
	assert.Equal(t, os.Stdout, w.output)
	assert.NoError(t, w.Close())
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		w := NewFileWriterOrStdout(FormatYAML, "  ")
		assert.Equal(t, os.Stdout, w.output)
		assert.Nil(t, w.closer)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.json")
		w := NewFileWriterOrStdout(FormatJSON, path)
		require.NoError(t, w.Serialize(context.Background(), sample()))
		require.NoError(t, w.Close())
		require.NoError(t, w.Close(), "second close is a no-op")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\"runId\": \"run-1\"")
	})

	t.Run("unwritable path falls back to stdout", func(t *testing.T) {
		w := NewFileWriterOrStdout(FormatJSON, filepath.Join(t.TempDir(), "missing", "summary.json"))
		assert.Equal(t, os.Stdout, w.output)
	})
}
