/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the wolfibuild command line interface: flag and
// environment variable parsing, logging setup, and the build command that
// drives the matrix pipeline.
package cli
