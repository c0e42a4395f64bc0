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
	"testing"

	"github.com/wolfi-cuda/builder/pkg/matrix"
)

func testNamer() Namer {
	return Namer{
		Host:       "ghcr.io",
		Owner:      "octocat",
		Repository: "wolfi-cuda-base-image",
	}
}

func testSpec() matrix.BuildSpec {
	return matrix.BuildSpec{
		OSVersion:     "wolfi",
		CUDAVersion:   "12.4.1",
		PythonVersion: "3.11",
		Framework:     matrix.FrameworkBase,
		Architecture:  matrix.ArchAMD64,
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		name string
		spec matrix.BuildSpec
		want string
	}{
		{
			name: "base framework",
			spec: testSpec(),
			want: "wolfi_python_3.11_cuda_12.4.1_base",
		},
		{
			name: "pytorch framework",
			spec: matrix.BuildSpec{
				OSVersion:     "wolfi",
				CUDAVersion:   "12.4.1",
				PythonVersion: "3.11",
				Framework:     matrix.FrameworkPyTorch,
				Architecture:  matrix.ArchAMD64,
			},
			want: "wolfi_python_3.11_cuda_12.4.1_pytorch",
		},
		{
			name: "newer cuda and python",
			spec: matrix.BuildSpec{
				OSVersion:     "wolfi",
				CUDAVersion:   "12.6.0",
				PythonVersion: "3.12",
				Framework:     matrix.FrameworkTensorFlow,
				Architecture:  matrix.ArchARM64,
			},
			want: "wolfi_python_3.12_cuda_12.6.0_tensorflow",
		},
	}

	n := testNamer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Tag(tt.spec.Triple()); got != tt.want {
				t.Errorf("Tag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagExcludesArchitecture(t *testing.T) {
	n := testNamer()
	amd := testSpec()
	arm := amd
	arm.Architecture = matrix.ArchARM64

	if n.Tag(amd.Triple()) != n.Tag(arm.Triple()) {
		t.Error("final tag must not vary by architecture")
	}
	if n.IntermediateTag(amd) == n.IntermediateTag(arm) {
		t.Error("intermediate tags must vary by architecture")
	}
}

func TestIntermediateTag(t *testing.T) {
	n := testNamer()
	got := n.IntermediateTag(testSpec())
	want := "wolfi_python_3.11_cuda_12.4.1_base_amd64"
	if got != want {
		t.Errorf("IntermediateTag() = %q, want %q", got, want)
	}
}

func TestReference(t *testing.T) {
	n := testNamer()
	got := n.Reference(testSpec().Triple())
	want := "ghcr.io/octocat/wolfi-cuda-base-image:wolfi_python_3.11_cuda_12.4.1_base"
	if got != want {
		t.Errorf("Reference() = %q, want %q", got, want)
	}
}

func TestNamerStripsProtocol(t *testing.T) {
	n := Namer{Host: "https://ghcr.io", Owner: "octocat", Repository: "repo"}
	if got := n.RepositoryPath(); got != "ghcr.io/octocat/repo" {
		t.Errorf("RepositoryPath() = %q", got)
	}
}

func TestValidateSpec(t *testing.T) {
	n := testNamer()

	tests := []struct {
		name    string
		mutate  func(*matrix.BuildSpec)
		wantErr bool
	}{
		{"valid", func(s *matrix.BuildSpec) {}, false},
		{"empty cuda", func(s *matrix.BuildSpec) { s.CUDAVersion = "" }, true},
		{"empty python", func(s *matrix.BuildSpec) { s.PythonVersion = "" }, true},
		{"empty os", func(s *matrix.BuildSpec) { s.OSVersion = "" }, true},
		{"tag separator in cuda", func(s *matrix.BuildSpec) { s.CUDAVersion = "12:4" }, true},
		{"path separator in os", func(s *matrix.BuildSpec) { s.OSVersion = "wolfi/edge" }, true},
		{"uppercase allowed in tags", func(s *matrix.BuildSpec) { s.Framework = "PyTorch" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			tt.mutate(&spec)
			err := n.ValidateSpec(spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpec() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMatrixInjective(t *testing.T) {
	n := testNamer()

	cfg := matrix.Config{
		OSVersions:     []string{"wolfi"},
		CUDAVersions:   []string{"12.4.1", "12.6.0"},
		PythonVersions: []string{"3.11", "3.12"},
		Frameworks:     matrix.SupportedFrameworks(),
		Architectures:  matrix.SupportedArchitectures(),
		MultiArch:      true,
		RegistryHost:   n.Host,
		Owner:          n.Owner,
		Repository:     n.Repository,
	}
	specs, err := matrix.Expand(cfg)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	if err := n.ValidateMatrix(specs); err != nil {
		t.Errorf("ValidateMatrix() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, s := range specs {
		ref := n.IntermediateReference(s)
		if seen[ref] {
			t.Errorf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}

func TestValidateMatrixCollision(t *testing.T) {
	n := testNamer()

	// Pathological axis values that alias through the underscore joiner.
	specs := []matrix.BuildSpec{
		{OSVersion: "wolfi", CUDAVersion: "12.4.1_base", PythonVersion: "3.11", Framework: "base", Architecture: matrix.ArchAMD64},
		{OSVersion: "wolfi", CUDAVersion: "12.4.1", PythonVersion: "3.11", Framework: "base_base", Architecture: matrix.ArchAMD64},
	}

	if err := n.ValidateMatrix(specs); err == nil {
		t.Error("expected collision error, got nil")
	}
}

func TestValidateNamer(t *testing.T) {
	tests := []struct {
		name    string
		namer   Namer
		wantErr bool
	}{
		{"valid", testNamer(), false},
		{"empty host", Namer{Owner: "a", Repository: "b"}, true},
		{"empty owner", Namer{Host: "ghcr.io", Repository: "b"}, true},
		{"empty repository", Namer{Host: "ghcr.io", Owner: "a"}, true},
		{"owner with slash", Namer{Host: "ghcr.io", Owner: "a/b", Repository: "c"}, true},
		{"host with port", Namer{Host: "localhost:5000", Owner: "test", Repository: "img"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.namer.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
