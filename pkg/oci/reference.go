// Copyright (c) 2026, Wolfi CUDA Builder authors.  All rights reserved.
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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
	"github.com/wolfi-cuda/builder/pkg/matrix"
)

// Namer derives canonical registry references for build specifications.
// It is a pure value: formatting has no side effects and is total over
// valid specs.
type Namer struct {
	// Host is the registry host (e.g. "ghcr.io").
	Host string
	// Owner is the registry namespace (e.g. a GitHub username or org).
	Owner string
	// Repository is the image repository name.
	Repository string
}

// RepositoryPath returns "host/owner/repository".
func (n Namer) RepositoryPath() string {
	return fmt.Sprintf("%s/%s/%s", stripProtocol(n.Host), n.Owner, n.Repository)
}

// Tag returns the final, human-facing tag for a build group:
// "{os}_python_{py}_cuda_{cuda}_{framework}".
func (n Namer) Tag(t matrix.Triple) string {
	return fmt.Sprintf("%s_python_%s_cuda_%s_%s",
		t.OSVersion, t.PythonVersion, t.CUDAVersion, t.Framework)
}

// IntermediateTag returns the architecture-suffixed tag used only while
// assembling a manifest list, never reported as a published reference.
func (n Namer) IntermediateTag(s matrix.BuildSpec) string {
	return fmt.Sprintf("%s_%s", n.Tag(s.Triple()), s.Architecture)
}

// Reference returns the full final reference for a build group.
func (n Namer) Reference(t matrix.Triple) string {
	return fmt.Sprintf("%s:%s", n.RepositoryPath(), n.Tag(t))
}

// IntermediateReference returns the full architecture-suffixed reference.
func (n Namer) IntermediateReference(s matrix.BuildSpec) string {
	return fmt.Sprintf("%s:%s", n.RepositoryPath(), n.IntermediateTag(s))
}

// Validate checks the namer's own components: non-empty, free of reference
// separators, and forming a parseable repository path.
func (n Namer) Validate() error {
	components := map[string]string{
		"registry host": stripProtocol(n.Host),
		"owner":         n.Owner,
		"repository":    n.Repository,
	}
	for name, value := range components {
		if value == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s must not be empty", name))
		}
		if name != "registry host" && strings.ContainsAny(value, ":/") {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s contains a reference separator", name),
				map[string]any{name: value})
		}
	}
	if _, err := reference.ParseNormalizedNamed(n.RepositoryPath()); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid repository path %q", n.RepositoryPath()), err)
	}
	return nil
}

// ValidateSpec checks that every tag component of a spec is usable: no
// empty values, no tag separators, and the assembled intermediate
// reference (the longest form) parses as a valid tagged reference.
func (n Namer) ValidateSpec(s matrix.BuildSpec) error {
	components := map[string]string{
		"os version":     s.OSVersion,
		"cuda version":   s.CUDAVersion,
		"python version": s.PythonVersion,
		"framework":      string(s.Framework),
	}
	for name, value := range components {
		if value == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s must not be empty", name))
		}
		if strings.ContainsAny(value, ":/") {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s contains a tag separator", name),
				map[string]any{name: value, "spec": s.String()})
		}
	}

	ref := n.IntermediateReference(s)
	parsed, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid image reference %q", ref), err)
	}
	if _, ok := parsed.(reference.Tagged); !ok {
		return apperrors.New(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("reference %q has no tag", ref))
	}
	return nil
}

// ValidateMatrix validates every spec and checks that no two distinct
// specs collide on a reference. The formatter is injective over sanely
// named axes, but axis values containing underscores could alias, so the
// pipeline verifies before scheduling any job.
func (n Namer) ValidateMatrix(specs []matrix.BuildSpec) error {
	if err := n.Validate(); err != nil {
		return err
	}
	seen := make(map[string]matrix.BuildSpec, len(specs))
	for _, s := range specs {
		if err := n.ValidateSpec(s); err != nil {
			return err
		}
		ref := n.IntermediateReference(s)
		if prev, dup := seen[ref]; dup {
			return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig,
				"two build specs collide on one tag",
				map[string]any{"reference": ref, "first": prev.String(), "second": s.String()})
		}
		seen[ref] = s
	}
	return nil
}

// stripProtocol removes http:// or https:// prefix from a registry host.
func stripProtocol(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return host
}
