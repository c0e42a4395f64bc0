/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

// Package serializer renders run reports to JSON, YAML or an aligned
// text table, writing to stdout or a file.
//
// Usage:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatJSON, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, summary); err != nil { ... }
//
// The table format flattens nested structures into dotted keys so any
// report shape renders without format-specific code.
package serializer
