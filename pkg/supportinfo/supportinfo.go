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

// Package supportinfo fetches the support info document of the deployment
// from its business API.
//
// Collection is best effort. A missing configuration or any failure yields a
// typed Result instead of an error, so a run never fails because of it.
package supportinfo

import (
	"context"
	"log/slog"

	"github.com/whatsapp/wadebug/pkg/artifact"
	"github.com/whatsapp/wadebug/pkg/config"
	"github.com/whatsapp/wadebug/pkg/defaults"
)

// Outcome tells why a Result does or does not carry an artifact.
type Outcome string

const (
	OutcomeCollected     Outcome = "collected"
	OutcomeNotConfigured Outcome = "not_configured"
	OutcomeUnavailable   Outcome = "unavailable"
)

// Indent is the JSON indentation of support-info.log.
const Indent = 2

// Result is the outcome of a support info collection.
type Result struct {
	Artifact artifact.Artifact
	Outcome  Outcome
	// Err is set when Outcome is OutcomeUnavailable.
	Err error
}

// Get returns the artifact and true when support info was collected.
func (r Result) Get() (artifact.Artifact, bool) {
	return r.Artifact, r.Outcome == OutcomeCollected
}

// Fetcher returns the support info document.
type Fetcher interface {
	SupportInfo(ctx context.Context) (any, error)
}

// Collector writes support-info.log when the webapp section is configured.
type Collector struct {
	Config *config.Config
	Writer *artifact.Writer
	// ConfigErr is the error met while loading Config. When set, Collect
	// reports OutcomeUnavailable without contacting the API.
	ConfigErr error

	newFetcher func(*config.WebApp) (Fetcher, error)
}

// NewCollector returns a Collector using the business API client.
func NewCollector(cfg *config.Config, w *artifact.Writer) *Collector {
	return &Collector{Config: cfg, Writer: w}
}

func defaultFetcher(w *config.WebApp) (Fetcher, error) {
	return NewClient(w)
}

// Collect fetches and writes the support info document.
func (c *Collector) Collect(ctx context.Context) Result {
	if c.ConfigErr != nil {
		return unavailable(c.ConfigErr)
	}
	if c.Config == nil || c.Config.WebApp == nil {
		slog.Debug("support info not configured")
		return Result{Outcome: OutcomeNotConfigured}
	}

	newFetcher := c.newFetcher
	if newFetcher == nil {
		newFetcher = defaultFetcher
	}

	f, err := newFetcher(c.Config.WebApp)
	if err != nil {
		return unavailable(err)
	}

	doc, err := f.SupportInfo(ctx)
	if err != nil {
		return unavailable(err)
	}

	a, err := c.Writer.WriteJSON(defaults.SupportInfoFile, artifact.KindSupportInfo, doc, Indent)
	if err != nil {
		return unavailable(err)
	}

	slog.Info("support info collected", "artifact", a.Name)
	return Result{Artifact: a, Outcome: OutcomeCollected}
}

func unavailable(err error) Result {
	slog.Info("support info unavailable", "error", err)
	return Result{Outcome: OutcomeUnavailable, Err: err}
}
