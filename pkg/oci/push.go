/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
	"github.com/wolfi-cuda/builder/pkg/matrix"
)

// PushReceipt records a confirmed registry push.
type PushReceipt struct {
	// Reference is the full pushed reference (registry/repo:tag).
	Reference string
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
}

// Push copies an image from a local OCI image layout directory to the
// repository under the given tag. The layout is resolved by localRef, the
// reference the build engine recorded when exporting; a layout holding a
// single image is accepted even when the recorded reference does not match.
func (s *Session) Push(ctx context.Context, repoPath, layoutPath, localRef, tag string) (*PushReceipt, error) {
	store, err := oci.New(layoutPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodePushFailed,
			fmt.Sprintf("failed to open image layout %s", layoutPath), err)
	}

	if _, err := store.Resolve(ctx, localRef); err != nil {
		// Engines differ in how they record ref names in the exported
		// layout. A single-image layout is unambiguous without one.
		desc, indexErr := soleManifest(layoutPath)
		if indexErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodePushFailed,
				fmt.Sprintf("cannot resolve %q in layout %s", localRef, layoutPath), err)
		}
		if tagErr := store.Tag(ctx, desc, localRef); tagErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodePushFailed,
				"failed to tag image in local layout", tagErr)
		}
	}

	repo, err := s.repository(repoPath)
	if err != nil {
		return nil, err
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	desc, err := oras.Copy(ctx, store, localRef, repo, tag, oras.DefaultCopyOptions)
	if err != nil {
		code := apperrors.ErrCodePushFailed
		if IsAuthError(err) {
			code = apperrors.ErrCodeUnauthorized
		}
		return nil, apperrors.WrapWithContext(code, "failed to push image", err,
			map[string]any{"repository": repoPath, "tag": tag})
	}

	ref := fmt.Sprintf("%s:%s", repoPath, tag)
	slog.Debug("pushed image", "reference", ref, "digest", desc.Digest.String())

	return &PushReceipt{
		Reference: ref,
		Digest:    desc.Digest.String(),
	}, nil
}

// CreateManifestList assembles one OCI image index referencing the
// per-architecture manifests already pushed under their intermediate tags,
// and pushes it under the group's final tag. The index is pushed only once
// every architecture-specific manifest resolves, so the published reference
// never points at a partial set.
func (s *Session) CreateManifestList(ctx context.Context, namer Namer, group []matrix.BuildSpec) (*PushReceipt, error) {
	if len(group) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "empty architecture group")
	}

	repo, err := s.repository(namer.RepositoryPath())
	if err != nil {
		return nil, err
	}

	manifests := make([]ocispec.Descriptor, 0, len(group))
	for _, spec := range group {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		tag := namer.IntermediateTag(spec)
		desc, err := repo.Resolve(ctx, tag)
		if err != nil {
			code := apperrors.ErrCodePushFailed
			if IsAuthError(err) {
				code = apperrors.ErrCodeUnauthorized
			}
			return nil, apperrors.WrapWithContext(code,
				"failed to resolve architecture manifest", err,
				map[string]any{"tag": tag, "architecture": spec.Architecture})
		}
		desc.Platform = &ocispec.Platform{
			OS:           "linux",
			Architecture: string(spec.Architecture),
		}
		manifests = append(manifests, desc)
	}

	index := ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: manifests,
	}
	data, err := json.Marshal(index)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode image index", err)
	}

	finalTag := namer.Tag(group[0].Triple())
	desc := content.NewDescriptorFromBytes(ocispec.MediaTypeImageIndex, data)

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if err := repo.Manifests().PushReference(ctx, desc, bytes.NewReader(data), finalTag); err != nil {
		code := apperrors.ErrCodePushFailed
		if IsAuthError(err) {
			code = apperrors.ErrCodeUnauthorized
		}
		return nil, apperrors.WrapWithContext(code, "failed to push manifest list", err,
			map[string]any{"repository": namer.RepositoryPath(), "tag": finalTag})
	}

	ref := fmt.Sprintf("%s:%s", namer.RepositoryPath(), finalTag)
	slog.Debug("pushed manifest list",
		"reference", ref,
		"digest", desc.Digest.String(),
		"architectures", len(manifests),
	)

	return &PushReceipt{
		Reference: ref,
		Digest:    desc.Digest.String(),
	}, nil
}

// soleManifest reads a layout's index.json and returns its only manifest
// descriptor, failing when the layout holds zero or multiple images.
func soleManifest(layoutPath string) (ocispec.Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(layoutPath, ocispec.ImageIndexFile))
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	var index ocispec.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return ocispec.Descriptor{}, err
	}
	if len(index.Manifests) != 1 {
		return ocispec.Descriptor{}, fmt.Errorf("layout holds %d images, expected 1", len(index.Manifests))
	}
	return index.Manifests[0], nil
}
