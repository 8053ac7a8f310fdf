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

package publish

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/whatsapp/wadebug/pkg/defaults"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
	"github.com/whatsapp/wadebug/pkg/objectstore"
	"github.com/whatsapp/wadebug/pkg/oci"
)

// Kind of a publish target.
type Kind string

const (
	KindOCI Kind = "oci"
	KindS3  Kind = "s3"
)

// S3Scheme is the URI scheme for bucket targets.
const S3Scheme = "s3://"

// Target is a parsed --publish value.
type Target struct {
	Kind Kind
	// OCI is set for KindOCI.
	OCI *oci.Reference
	// Bucket and Prefix are set for KindS3.
	Bucket string
	Prefix string
}

// ParseTarget parses oci://registry/repo[:tag] or s3://bucket[/prefix].
func ParseTarget(s string) (*Target, error) {
	switch {
	case strings.HasPrefix(s, oci.URIScheme):
		ref, err := oci.ParseReference(s)
		if err != nil {
			return nil, err
		}
		return &Target{Kind: KindOCI, OCI: ref}, nil
	case strings.HasPrefix(s, S3Scheme):
		rest := strings.TrimPrefix(s, S3Scheme)
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
				"bucket is required", map[string]any{"target": s})
		}
		return &Target{Kind: KindS3, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	default:
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"unsupported publish target, use oci:// or s3://", map[string]any{"target": s})
	}
}

// String returns the target in URI form.
func (t *Target) String() string {
	if t.Kind == KindOCI {
		return t.OCI.String()
	}
	if t.Prefix == "" {
		return S3Scheme + t.Bucket
	}
	return S3Scheme + t.Bucket + "/" + t.Prefix
}

// Request describes the archive to publish.
type Request struct {
	ArchivePath string
	RunID       string
	Digest      string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithPlainHTTP uses HTTP for registry connections.
func WithPlainHTTP(v bool) Option {
	return func(p *Publisher) { p.plainHTTP = v }
}

// WithInsecureTLS skips registry certificate verification.
func WithInsecureTLS(v bool) Option {
	return func(p *Publisher) { p.insecureTLS = v }
}

// Publisher sends archives to registries and buckets.
type Publisher struct {
	plainHTTP   bool
	insecureTLS bool

	pushOCI  func(ctx context.Context, archivePath string, opts oci.PushOptions) (string, error)
	uploadS3 func(ctx context.Context, bucket, key, archivePath string) (string, error)
}

// New returns a Publisher backed by ORAS and MinIO.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		pushOCI:  pushOCI,
		uploadS3: uploadS3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends the archive to t and returns the published location.
// Registry targets without a tag are tagged with the run ID.
func (p *Publisher) Publish(ctx context.Context, t *Target, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.PublishTimeout)
	defer cancel()

	switch t.Kind {
	case KindOCI:
		ref := t.OCI
		if ref.Tag == "" {
			ref = ref.WithTag(req.RunID)
		}
		annotations := map[string]string{
			"org.opencontainers.image.title": "wadebug logs",
			"com.whatsapp.wadebug.run-id":    req.RunID,
		}
		if req.Digest != "" {
			annotations["com.whatsapp.wadebug.archive-digest"] = req.Digest
		}
		location, err := p.pushOCI(ctx, req.ArchivePath, oci.PushOptions{
			Reference:   ref,
			PlainHTTP:   p.plainHTTP,
			InsecureTLS: p.insecureTLS,
			Annotations: annotations,
		})
		if err != nil {
			return "", err
		}
		slog.Info("archive published", "location", location)
		return location, nil
	case KindS3:
		key := objectstore.ObjectKey(t.Prefix, req.RunID, filepath.Base(req.ArchivePath))
		location, err := p.uploadS3(ctx, t.Bucket, key, req.ArchivePath)
		if err != nil {
			return "", err
		}
		slog.Info("archive published", "location", location)
		return location, nil
	default:
		return "", apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"unsupported publish target", map[string]any{"kind": string(t.Kind)})
	}
}

func pushOCI(ctx context.Context, archivePath string, opts oci.PushOptions) (string, error) {
	res, err := oci.Push(ctx, archivePath, opts)
	if err != nil {
		return "", err
	}
	return oci.URIScheme + res.Reference + "@" + res.Digest, nil
}

func uploadS3(ctx context.Context, bucket, key, archivePath string) (string, error) {
	cfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return "", err
	}
	client, err := objectstore.NewClient(cfg)
	if err != nil {
		return "", err
	}
	res, err := objectstore.Upload(ctx, client, cfg.Region, bucket, key, archivePath)
	if err != nil {
		return "", err
	}
	return res.URI(), nil
}
