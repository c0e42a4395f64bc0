/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"context"

	"github.com/wolfi-cuda/builder/pkg/matrix"
	"github.com/wolfi-cuda/builder/pkg/recipe"
)

// Artifact is the result of one successful image build: an OCI image layout
// directory ready to be pushed.
type Artifact struct {
	// Spec is the matrix cell the artifact was built for.
	Spec matrix.BuildSpec
	// LayoutPath is the OCI image layout directory holding the image.
	LayoutPath string
	// LocalRef is the reference recorded in the layout when it was
	// exported, used to resolve the image inside the layout.
	LocalRef string
}

// Engine produces an image artifact for one build specification.
// Implementations must honor context cancellation and deadlines.
type Engine interface {
	Build(ctx context.Context, spec matrix.BuildSpec, params recipe.Params) (*Artifact, error)
}
