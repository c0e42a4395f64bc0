/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package matrix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wolfi-cuda/builder/pkg/errors"
)

// Config enumerates the candidate values per build axis plus the registry
// coordinates every resulting image publishes under.
type Config struct {
	// OSVersions lists base OS tags (e.g. "wolfi").
	OSVersions []string `json:"os_versions" yaml:"os_versions"`
	// CUDAVersions lists CUDA toolkit versions (e.g. "12.4.1").
	CUDAVersions []string `json:"cuda_versions" yaml:"cuda_versions"`
	// PythonVersions lists Python versions (e.g. "3.11").
	PythonVersions []string `json:"python_versions" yaml:"python_versions"`
	// Frameworks lists the image variants to produce.
	Frameworks []Framework `json:"frameworks" yaml:"frameworks"`
	// Architectures lists target architectures. Only consulted when
	// MultiArch is true; otherwise the host architecture is used.
	Architectures []Architecture `json:"architectures" yaml:"architectures"`
	// MultiArch enables building every architecture and assembling one
	// manifest list per (os, cuda, python, framework) group.
	MultiArch bool `json:"multi_arch" yaml:"multi_arch"`

	// RegistryHost is the registry to publish to (e.g. "ghcr.io").
	RegistryHost string `json:"registry_host" yaml:"registry_host"`
	// Owner is the registry namespace (e.g. a GitHub username or org).
	Owner string `json:"owner" yaml:"owner"`
	// Repository is the image repository name.
	Repository string `json:"repository" yaml:"repository"`
}

// Default values mirroring the published build matrix.
const (
	DefaultRegistryHost = "ghcr.io"
	DefaultRepository   = "wolfi-cuda-base-image"
)

// DefaultConfig returns the standard build matrix: Wolfi base, current CUDA
// and Python versions, all framework variants, both architectures.
func DefaultConfig() Config {
	return Config{
		OSVersions:     []string{"wolfi"},
		CUDAVersions:   []string{"12.4.1", "12.6.0"},
		PythonVersions: []string{"3.11", "3.12"},
		Frameworks:     SupportedFrameworks(),
		Architectures:  SupportedArchitectures(),
		RegistryHost:   DefaultRegistryHost,
		Repository:     DefaultRepository,
	}
}

// LoadFile reads a Config from a YAML file, applying defaults for axes the
// file omits.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return cfg, nil
}

// Validate checks that every axis is non-empty and every enum value is
// known. Violations are configuration errors that abort the run before any
// job is scheduled.
func (c Config) Validate() error {
	axes := []struct {
		name string
		size int
	}{
		{"os_versions", len(c.OSVersions)},
		{"cuda_versions", len(c.CUDAVersions)},
		{"python_versions", len(c.PythonVersions)},
		{"frameworks", len(c.Frameworks)},
		{"architectures", len(c.Architectures)},
	}
	for _, axis := range axes {
		if axis.size == 0 {
			return errors.NewWithContext(errors.ErrCodeInvalidConfig,
				"build matrix axis is empty",
				map[string]any{"axis": axis.name})
		}
	}

	for _, f := range c.Frameworks {
		if _, err := ParseFramework(string(f)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, "invalid framework axis", err)
		}
	}
	for _, a := range c.Architectures {
		if _, err := ParseArchitecture(string(a)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, "invalid architecture axis", err)
		}
	}

	if c.RegistryHost == "" || c.Repository == "" {
		return errors.New(errors.ErrCodeInvalidConfig,
			"registry host and repository are required")
	}
	return nil
}
