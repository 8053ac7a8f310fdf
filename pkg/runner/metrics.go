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

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wadebug_run_duration_seconds",
			Help:    "Time taken by a complete log collection run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	containerCollectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wadebug_container_collections_total",
			Help: "Total number of per-container collection attempts",
		},
		[]string{"status"}, // success or error
	)

	containerCollectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wadebug_container_collect_duration_seconds",
			Help:    "Time taken to collect the artifacts of one container",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 120},
		},
		[]string{"role"}, // generic, generic+core, generic+web
	)

	artifactCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wadebug_artifacts_collected",
			Help: "Number of artifacts in the last collection run",
		},
	)

	supportInfoTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wadebug_support_info_total",
			Help: "Support info collection attempts by outcome",
		},
		[]string{"outcome"}, // collected, not_configured, unavailable
	)
)
