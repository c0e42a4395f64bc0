/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package matrix

import (
	"slices"
	"strings"
)

// Expand turns the configuration into the flat set of build specifications,
// one per matrix cell, ordered lexicographically by (os, cuda, python,
// framework, architecture).
//
// With MultiArch disabled the architecture axis collapses to the host
// architecture, so the result has exactly len(os)*len(cuda)*len(python)*
// len(frameworks) entries; with it enabled, the configured architecture
// axis multiplies in as well.
func Expand(cfg Config) ([]BuildSpec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	osVersions := sortedCopy(cfg.OSVersions)
	cudaVersions := sortedCopy(cfg.CUDAVersions)
	pythonVersions := sortedCopy(cfg.PythonVersions)

	frameworks := slices.Clone(cfg.Frameworks)
	slices.Sort(frameworks)

	archs := []Architecture{HostArchitecture()}
	if cfg.MultiArch {
		archs = slices.Clone(cfg.Architectures)
		slices.Sort(archs)
		archs = slices.Compact(archs)
	}

	specs := make([]BuildSpec, 0,
		len(osVersions)*len(cudaVersions)*len(pythonVersions)*len(frameworks)*len(archs))

	for _, osv := range osVersions {
		for _, cuda := range cudaVersions {
			for _, py := range pythonVersions {
				for _, fw := range frameworks {
					for _, arch := range archs {
						specs = append(specs, BuildSpec{
							OSVersion:     osv,
							CUDAVersion:   cuda,
							PythonVersion: py,
							Framework:     fw,
							Architecture:  arch,
						})
					}
				}
			}
		}
	}
	return specs, nil
}

// GroupByTriple partitions specs into architecture groups sharing one final
// tag. Iteration order of the returned keys follows first appearance in
// specs, preserved separately so callers stay deterministic.
func GroupByTriple(specs []BuildSpec) (map[Triple][]BuildSpec, []Triple) {
	groups := make(map[Triple][]BuildSpec)
	order := make([]Triple, 0)
	for _, spec := range specs {
		key := spec.Triple()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], spec)
	}
	return groups, order
}

func sortedCopy(values []string) []string {
	out := slices.Clone(values)
	slices.SortFunc(out, strings.Compare)
	return slices.Compact(out)
}
