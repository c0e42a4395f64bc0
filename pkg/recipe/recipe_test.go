package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfi-cuda/builder/pkg/matrix"
)

func testSpec(fw matrix.Framework) matrix.BuildSpec {
	return matrix.BuildSpec{
		OSVersion:     "wolfi",
		CUDAVersion:   "12.4.1",
		PythonVersion: "3.11",
		Framework:     fw,
		Architecture:  matrix.ArchAMD64,
	}
}

func TestForBase(t *testing.T) {
	params, err := For(testSpec(matrix.FrameworkBase), "octocat", "wolfi-cuda-base-image")
	require.NoError(t, err)

	assert.Equal(t, BaseImage, params.BaseImage)
	assert.Contains(t, params.Packages, "python-3.11")
	assert.Contains(t, params.Packages, "py3.11-pip")
	assert.Contains(t, params.Packages, "curl")
	assert.Contains(t, params.Packages, "bash")

	// base variant installs only the toolkit, pinned at major.minor
	assert.Equal(t, []string{"cuda-toolkit=12.4"}, params.CondaPackages)
}

func TestForFrameworks(t *testing.T) {
	tests := []struct {
		framework matrix.Framework
		wantPkg   string
	}{
		{matrix.FrameworkPyTorch, "pytorch"},
		{matrix.FrameworkTensorFlow, "tensorflow"},
	}

	for _, tt := range tests {
		t.Run(string(tt.framework), func(t *testing.T) {
			params, err := For(testSpec(tt.framework), "octocat", "repo")
			require.NoError(t, err)
			assert.Equal(t, []string{"cuda-toolkit=12.4", tt.wantPkg}, params.CondaPackages)
		})
	}
}

func TestForLabels(t *testing.T) {
	params, err := For(testSpec(matrix.FrameworkPyTorch), "octocat", "wolfi-cuda-base-image")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/octocat/wolfi-cuda-base-image",
		params.Labels["org.opencontainers.image.source"])
	assert.Equal(t, "wolfi-cuda-pytorch",
		params.Labels["org.opencontainers.image.title"])
	assert.Contains(t, params.Labels["org.opencontainers.image.description"], "CUDA 12.4.1")
	assert.Contains(t, params.Labels["org.opencontainers.image.description"], "Python 3.11")
}

func TestForInvalidCUDAVersion(t *testing.T) {
	spec := testSpec(matrix.FrameworkBase)
	spec.CUDAVersion = "latest"

	_, err := For(spec, "octocat", "repo")
	assert.Error(t, err)
}

func TestDockerfile(t *testing.T) {
	params, err := For(testSpec(matrix.FrameworkPyTorch), "octocat", "repo")
	require.NoError(t, err)

	df, err := params.Dockerfile()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(df, "FROM "+BaseImage))
	assert.Contains(t, df, "apk add --no-cache python-3.11 py3.11-pip curl bash")
	assert.Contains(t, df, "micromamba install -y -n base -c conda-forge cuda-toolkit=12.4 pytorch")
	assert.Contains(t, df, `ENV MAMBA_ROOT_PREFIX="/root/micromamba"`)
	assert.Contains(t, df, `LABEL org.opencontainers.image.licenses="Apache-2.0"`)
}

func TestDockerfileDeterministic(t *testing.T) {
	params, err := For(testSpec(matrix.FrameworkBase), "octocat", "repo")
	require.NoError(t, err)

	first, err := params.Dockerfile()
	require.NoError(t, err)
	second, err := params.Dockerfile()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
