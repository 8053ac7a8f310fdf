/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// ArtifactType is the artifact type of pushed log bundles.
const ArtifactType = "application/vnd.whatsapp.wadebug.logs"

// MediaTypeZip is the layer media type of the bundle.
const MediaTypeZip = "application/zip"

// PushOptions configures the OCI push operation.
type PushOptions struct {
	// Reference is the destination; Tag must be set.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	// Digest is the digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// Push uploads the archive at archivePath as a single-layer OCI artifact.
func Push(ctx context.Context, archivePath string, opts PushOptions) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "reference is required to push")
	}
	if opts.Reference.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}

	repoRef := fmt.Sprintf("%s/%s", stripProtocol(opts.Reference.Registry), opts.Reference.Repository)
	repo, err := remote.NewRepository(repoRef)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	slog.Info("pushing bundle", "reference", opts.Reference.ImageReference())

	digest, err := push(ctx, archivePath, repo, opts.Reference.Tag, opts.Annotations)
	if err != nil {
		return nil, err
	}

	return &PushResult{
		Digest:    digest,
		Reference: opts.Reference.ImageReference(),
	}, nil
}

// push packs archivePath into a manifest and copies it to dst under tag.
func push(ctx context.Context, archivePath string, dst oras.Target, tag string, annotations map[string]string) (string, error) {
	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve archive path", err)
	}

	fs, err := file.New(filepath.Dir(absPath))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	layer, err := fs.Add(ctx, filepath.Base(absPath), MediaTypeZip, absPath)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeFileAccess, "failed to add archive to store", err)
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	if err := fs.Tag(ctx, manifest, tag); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push artifact to registry", err)
	}
	return desc.Digest.String(), nil
}

// stripProtocol removes http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
