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

package objectstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvEndpoint  = "WADEBUG_S3_ENDPOINT"
	EnvAccessKey = "WADEBUG_S3_ACCESS_KEY"
	EnvSecretKey = "WADEBUG_S3_SECRET_KEY"
	EnvRegion    = "WADEBUG_S3_REGION"
	EnvUseSSL    = "WADEBUG_S3_USE_SSL"
)

// Default connection values.
const (
	DefaultEndpoint = "s3.amazonaws.com"
	DefaultRegion   = "us-east-1"
)

// Config holds the connection details of the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ConfigFromEnv reads WADEBUG_S3_* variables.
func ConfigFromEnv() (Config, error) {
	return configFrom(os.LookupEnv)
}

func configFrom(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	useSSL := true
	if v := get(EnvUseSSL, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, apperrors.WrapWithContext(apperrors.ErrCodeParse,
				"invalid boolean in environment", err, map[string]any{"name": EnvUseSSL})
		}
		useSSL = b
	}

	cfg := Config{
		Endpoint:  get(EnvEndpoint, DefaultEndpoint),
		AccessKey: get(EnvAccessKey, ""),
		SecretKey: get(EnvSecretKey, ""),
		Region:    get(EnvRegion, DefaultRegion),
		UseSSL:    useSSL,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every connection value is present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "access key is required, set "+EnvAccessKey)
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "secret key is required, set "+EnvSecretKey)
	}
	if strings.TrimSpace(c.Region) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "region is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("endpoint must not include scheme: %q", c.Endpoint))
	}
	return nil
}
