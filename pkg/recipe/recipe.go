/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package recipe

import (
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
	"github.com/wolfi-cuda/builder/pkg/matrix"
	"github.com/wolfi-cuda/builder/pkg/version"
)

// BaseImage is the Wolfi base every image builds from.
const BaseImage = "cgr.dev/chainguard/wolfi-base"

// MicromambaURL downloads the micromamba binary used to install CUDA and
// framework packages from conda-forge. Wolfi does not carry CUDA apks.
const MicromambaURL = "https://micro.mamba.pm/api/micromamba/linux-64/latest"

// frameworkCondaPackages maps each framework to its conda package.
// The base variant installs only the CUDA toolkit.
var frameworkCondaPackages = map[matrix.Framework]string{
	matrix.FrameworkBase:       "",
	matrix.FrameworkPyTorch:    "pytorch",
	matrix.FrameworkTensorFlow: "tensorflow",
}

// Params carries everything the build engine needs to produce an image for
// one build specification.
type Params struct {
	// BaseImage is the image the build starts from.
	BaseImage string
	// Packages are Wolfi apk packages installed with apk add.
	Packages []string
	// CondaPackages are installed into the base conda env via micromamba.
	CondaPackages []string
	// Env is the container environment configured on the image.
	Env map[string]string
	// Labels are OCI image labels stamped on the image.
	Labels map[string]string
}

// For computes the recipe parameters for a spec. The owner and repository
// feed the source label so published images link back to their repo.
func For(spec matrix.BuildSpec, owner, repository string) (Params, error) {
	cuda, err := version.Parse(spec.CUDAVersion)
	if err != nil {
		return Params{}, apperrors.Wrap(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid CUDA version %q", spec.CUDAVersion), err)
	}

	condaPackages := []string{
		// conda-forge pins cuda-toolkit at major.minor granularity
		fmt.Sprintf("cuda-toolkit=%s", cuda.MajorMinor()),
	}
	if pkg := frameworkCondaPackages[spec.Framework]; pkg != "" {
		condaPackages = append(condaPackages, pkg)
	}

	return Params{
		BaseImage: BaseImage,
		Packages: []string{
			fmt.Sprintf("python-%s", spec.PythonVersion),
			fmt.Sprintf("py%s-pip", spec.PythonVersion),
			"curl",
			"bash",
		},
		CondaPackages: condaPackages,
		Env: map[string]string{
			"MAMBA_ROOT_PREFIX": "/root/micromamba",
			"PATH":              "/root/micromamba/bin:/usr/local/cuda/bin:$PATH",
			"LD_LIBRARY_PATH":   "/root/micromamba/lib:$LD_LIBRARY_PATH",
		},
		Labels: map[string]string{
			ocispec.AnnotationSource:      fmt.Sprintf("https://github.com/%s/%s", owner, repository),
			ocispec.AnnotationDescription: fmt.Sprintf("Wolfi-based CUDA %s image with Python %s", spec.CUDAVersion, spec.PythonVersion),
			ocispec.AnnotationLicenses:    "Apache-2.0",
			ocispec.AnnotationTitle:       fmt.Sprintf("wolfi-cuda-%s", spec.Framework),
		},
	}, nil
}
