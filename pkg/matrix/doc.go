// Package matrix expands a declarative build matrix into the flat, ordered
// set of build specifications for one pipeline run.
//
// The matrix is the Cartesian product of the configured axes (OS version,
// CUDA version, Python version, framework, architecture). Expansion is a
// pure function of the configuration: re-expanding the same configuration
// yields the same specs in the same lexicographic order, keeping run output
// deterministic and diff-able.
//
// When multi-arch publishing is disabled, the architecture axis collapses to
// the host architecture so a laptop run produces locally usable images.
package matrix
