/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package matrix

import (
	"fmt"
	"runtime"
	"strings"
)

// Framework identifies the deep learning framework variant of an image.
type Framework string

const (
	// FrameworkBase is the CUDA-only variant with no framework installed.
	FrameworkBase Framework = "base"
	// FrameworkPyTorch bundles PyTorch on top of the CUDA toolkit.
	FrameworkPyTorch Framework = "pytorch"
	// FrameworkTensorFlow bundles TensorFlow on top of the CUDA toolkit.
	FrameworkTensorFlow Framework = "tensorflow"
)

// ParseFramework converts a string to a Framework.
func ParseFramework(s string) (Framework, error) {
	switch Framework(strings.ToLower(s)) {
	case FrameworkBase:
		return FrameworkBase, nil
	case FrameworkPyTorch:
		return FrameworkPyTorch, nil
	case FrameworkTensorFlow:
		return FrameworkTensorFlow, nil
	default:
		return "", fmt.Errorf("unknown framework: %s", s)
	}
}

// SupportedFrameworks returns all supported frameworks.
func SupportedFrameworks() []Framework {
	return []Framework{FrameworkBase, FrameworkPyTorch, FrameworkTensorFlow}
}

// Architecture identifies a target CPU architecture.
type Architecture string

const (
	// ArchAMD64 is the x86-64 architecture.
	ArchAMD64 Architecture = "amd64"
	// ArchARM64 is the 64-bit ARM architecture.
	// CUDA support on ARM64 may be limited depending on package availability.
	ArchARM64 Architecture = "arm64"
)

// ParseArchitecture converts a string to an Architecture. Platform strings
// such as "linux/amd64" are accepted; the OS prefix is stripped.
func ParseArchitecture(s string) (Architecture, error) {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	switch Architecture(strings.ToLower(s)) {
	case ArchAMD64:
		return ArchAMD64, nil
	case ArchARM64:
		return ArchARM64, nil
	default:
		return "", fmt.Errorf("unknown architecture: %s", s)
	}
}

// SupportedArchitectures returns all supported architectures.
func SupportedArchitectures() []Architecture {
	return []Architecture{ArchAMD64, ArchARM64}
}

// Platform returns the OCI platform string for the architecture (e.g. "linux/amd64").
func (a Architecture) Platform() string {
	return "linux/" + string(a)
}

// HostArchitecture returns the architecture of the machine running the
// pipeline. Unrecognized host architectures fall back to amd64, matching
// the single-platform default of the build matrix.
func HostArchitecture() Architecture {
	if runtime.GOARCH == string(ArchARM64) {
		return ArchARM64
	}
	return ArchAMD64
}

// BuildSpec uniquely identifies one matrix cell. It is an immutable value:
// created by Expand, consumed by the build engine and the tag formatter,
// never mutated.
type BuildSpec struct {
	OSVersion     string       `json:"os_version" yaml:"os_version"`
	CUDAVersion   string       `json:"cuda_version" yaml:"cuda_version"`
	PythonVersion string       `json:"python_version" yaml:"python_version"`
	Framework     Framework    `json:"framework" yaml:"framework"`
	Architecture  Architecture `json:"architecture" yaml:"architecture"`
}

// Triple identifies the (os, cuda, python, framework) group a spec belongs
// to. All architectures of the same triple publish under one manifest list.
type Triple struct {
	OSVersion     string
	CUDAVersion   string
	PythonVersion string
	Framework     Framework
}

// Triple returns the spec's architecture-independent group key.
func (s BuildSpec) Triple() Triple {
	return Triple{
		OSVersion:     s.OSVersion,
		CUDAVersion:   s.CUDAVersion,
		PythonVersion: s.PythonVersion,
		Framework:     s.Framework,
	}
}

// String returns a compact identity for logs and events.
func (s BuildSpec) String() string {
	return fmt.Sprintf("%s/cuda-%s/python-%s/%s/%s",
		s.OSVersion, s.CUDAVersion, s.PythonVersion, s.Framework, s.Architecture)
}

// String returns a compact identity for the triple.
func (t Triple) String() string {
	return fmt.Sprintf("%s/cuda-%s/python-%s/%s",
		t.OSVersion, t.CUDAVersion, t.PythonVersion, t.Framework)
}
