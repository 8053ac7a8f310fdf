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
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/whatsapp/wadebug/pkg/defaults"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// ContentType of uploaded bundles.
const ContentType = "application/zip"

// NewClient creates a MinIO client for cfg.
func NewClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to create object store client", err)
	}
	return client, nil
}

// ObjectKey returns the key of a bundle below prefix for a run.
func ObjectKey(prefix, runID, name string) string {
	return strings.TrimPrefix(path.Join(prefix, runID, name), "/")
}

// UploadResult describes an uploaded bundle.
type UploadResult struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// URI returns the s3:// location of the object.
func (r *UploadResult) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// Upload stores the file at filePath as bucket/key, creating the bucket when missing.
func Upload(ctx context.Context, client *minio.Client, region, bucket, key, filePath string) (*UploadResult, error) {
	if err := ensureBucket(ctx, client, bucket, region); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			"failed to ensure bucket", err, map[string]any{"bucket": bucket})
	}

	info, err := client.FPutObject(ctx, bucket, key, filePath, minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable,
			"failed to upload bundle", err, map[string]any{"bucket": bucket, "key": key})
	}

	slog.Info("bundle uploaded", "bucket", bucket, "key", key, "size", info.Size)
	return &UploadResult{Bucket: bucket, Key: key, ETag: info.ETag, Size: info.Size}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   defaults.HTTPConnectTimeout,
		KeepAlive: defaults.HTTPKeepAlive,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   defaults.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
