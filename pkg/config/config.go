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

// Package config loads the optional wadebug configuration file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// Environment overrides for the webapp section.
const (
	EnvWebAppBaseURL  = "WADEBUG_WEBAPP_BASE_URL"
	EnvWebAppUser     = "WADEBUG_WEBAPP_USER"
	EnvWebAppPassword = "WADEBUG_WEBAPP_PASSWORD"
	EnvWebAppInsecure = "WADEBUG_WEBAPP_INSECURE"
)

// Config is the content of wadebug.conf.yml.
type Config struct {
	WebApp *WebApp `yaml:"webapp,omitempty" json:"webapp,omitempty"`
}

// WebApp holds the connection details of the business API.
type WebApp struct {
	BaseURL  string `yaml:"baseUrl" json:"baseUrl"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"`
	// Insecure skips TLS verification, deployments commonly use self-signed certificates.
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// Validate checks that the webapp section is usable.
func (w *WebApp) Validate() error {
	if w == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "webapp section is missing")
	}
	if w.BaseURL == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "webapp baseUrl is required")
	}
	u, err := url.Parse(w.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"webapp baseUrl must be an absolute URL", map[string]any{"baseUrl": w.BaseURL})
	}
	if w.User == "" || w.Password == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "webapp user and password are required")
	}
	return nil
}

// Load reads the configuration file at path. A missing file is not an
// error and yields a nil Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no configuration file", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFileAccess,
			"failed to read configuration", err, map[string]any{"path": path})
	}
	return Parse(data)
}

// Parse decodes YAML configuration. An empty document yields a nil Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeParse, "failed to parse configuration", err)
	}
	if cfg.WebApp == nil {
		return nil, nil
	}
	return &cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeParse,
			"failed to load env file", err, map[string]any{"path": path})
	}
	return nil
}

// ApplyEnv overlays WADEBUG_WEBAPP_* variables on cfg. The webapp section is
// created when the base URL is set in the environment. cfg may be nil.
func ApplyEnv(cfg *Config) (*Config, error) {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) (*Config, error) {
	baseURL, hasURL := lookup(EnvWebAppBaseURL)
	if cfg == nil || cfg.WebApp == nil {
		if !hasURL || baseURL == "" {
			return cfg, nil
		}
		cfg = &Config{WebApp: &WebApp{}}
	}

	w := cfg.WebApp
	if hasURL && baseURL != "" {
		w.BaseURL = baseURL
	}
	if v, ok := lookup(EnvWebAppUser); ok && v != "" {
		w.User = v
	}
	if v, ok := lookup(EnvWebAppPassword); ok && v != "" {
		w.Password = v
	}
	if v, ok := lookup(EnvWebAppInsecure); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeParse,
				"invalid boolean in environment", err, map[string]any{"name": EnvWebAppInsecure})
		}
		w.Insecure = b
	}
	return cfg, nil
}
