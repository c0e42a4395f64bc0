package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
)

func testConfig() Config {
	return Config{
		OSVersions:     []string{"wolfi"},
		CUDAVersions:   []string{"12.4.1", "12.6.0"},
		PythonVersions: []string{"3.11", "3.12"},
		Frameworks:     []Framework{FrameworkBase, FrameworkPyTorch, FrameworkTensorFlow},
		Architectures:  []Architecture{ArchAMD64, ArchARM64},
		RegistryHost:   "ghcr.io",
		Owner:          "octocat",
		Repository:     "wolfi-cuda-base-image",
	}
}

func TestExpandSingleArchCardinality(t *testing.T) {
	cfg := testConfig()
	cfg.MultiArch = false

	specs, err := Expand(cfg)
	require.NoError(t, err)

	// 1 os * 2 cuda * 2 python * 3 frameworks, arch collapsed to host
	assert.Len(t, specs, 12)
	host := HostArchitecture()
	for _, s := range specs {
		assert.Equal(t, host, s.Architecture)
	}
}

func TestExpandMultiArchCardinality(t *testing.T) {
	cfg := testConfig()
	cfg.MultiArch = true

	specs, err := Expand(cfg)
	require.NoError(t, err)

	// 1 os * 2 cuda * 2 python * 3 frameworks * 2 archs
	assert.Len(t, specs, 24)
}

func TestExpandDeterministicOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MultiArch = true

	first, err := Expand(cfg)
	require.NoError(t, err)
	second, err := Expand(cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Lexicographic by (os, cuda, python, framework, arch).
	require.NotEmpty(t, first)
	assert.Equal(t, BuildSpec{
		OSVersion:     "wolfi",
		CUDAVersion:   "12.4.1",
		PythonVersion: "3.11",
		Framework:     FrameworkBase,
		Architecture:  ArchAMD64,
	}, first[0])
	assert.Equal(t, BuildSpec{
		OSVersion:     "wolfi",
		CUDAVersion:   "12.6.0",
		PythonVersion: "3.12",
		Framework:     FrameworkTensorFlow,
		Architecture:  ArchARM64,
	}, first[len(first)-1])
}

func TestExpandUnsortedInputStillOrdered(t *testing.T) {
	cfg := testConfig()
	cfg.CUDAVersions = []string{"12.6.0", "12.4.1"}
	cfg.PythonVersions = []string{"3.12", "3.11"}

	specs, err := Expand(cfg)
	require.NoError(t, err)
	assert.Equal(t, "12.4.1", specs[0].CUDAVersion)
	assert.Equal(t, "3.11", specs[0].PythonVersion)
}

func TestExpandEmptyAxis(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty os versions", func(c *Config) { c.OSVersions = nil }},
		{"empty cuda versions", func(c *Config) { c.CUDAVersions = nil }},
		{"empty python versions", func(c *Config) { c.PythonVersions = nil }},
		{"empty frameworks", func(c *Config) { c.Frameworks = nil }},
		{"empty architectures", func(c *Config) { c.Architectures = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			specs, err := Expand(cfg)
			require.Error(t, err)
			assert.Nil(t, specs)
			assert.Equal(t, apperrors.ErrCodeInvalidConfig, apperrors.CodeOf(err))
		})
	}
}

func TestExpandInvalidEnum(t *testing.T) {
	cfg := testConfig()
	cfg.Frameworks = []Framework{"jax"}

	_, err := Expand(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidConfig, apperrors.CodeOf(err))
}

func TestGroupByTriple(t *testing.T) {
	cfg := testConfig()
	cfg.MultiArch = true

	specs, err := Expand(cfg)
	require.NoError(t, err)

	groups, order := GroupByTriple(specs)
	assert.Len(t, groups, 12)
	assert.Len(t, order, 12)
	for _, key := range order {
		group := groups[key]
		assert.Len(t, group, 2)
		for _, s := range group {
			assert.Equal(t, key, s.Triple())
		}
	}
}

func TestParseArchitecture(t *testing.T) {
	tests := []struct {
		input   string
		want    Architecture
		wantErr bool
	}{
		{"amd64", ArchAMD64, false},
		{"linux/amd64", ArchAMD64, false},
		{"ARM64", ArchARM64, false},
		{"linux/arm64", ArchARM64, false},
		{"riscv64", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseArchitecture(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFramework(t *testing.T) {
	for _, fw := range SupportedFrameworks() {
		got, err := ParseFramework(string(fw))
		require.NoError(t, err)
		assert.Equal(t, fw, got)
	}
	_, err := ParseFramework("caffe")
	assert.Error(t, err)
}
