/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type report struct {
	RunID   string   `json:"run_id" yaml:"run_id"`
	Total   int      `json:"total" yaml:"total"`
	Tags    []string `json:"tags" yaml:"tags"`
	Nested  nested   `json:"nested" yaml:"nested"`
	private string
}

type nested struct {
	Digest string `json:"digest" yaml:"digest"`
}

func sample() report {
	return report{
		RunID:   "run-1",
		Total:   2,
		Tags:    []string{"a", "b"},
		Nested:  nested{Digest: "sha256:abc"},
		private: "hidden",
	}
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	require.NoError(t, w.Serialize(context.Background(), sample()))

	var got report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Contains(t, buf.String(), "  ") // indented
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	require.NoError(t, w.Serialize(context.Background(), sample()))

	var got report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, "sha256:abc", got.Nested.Digest)
}

func TestWriterTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	require.NoError(t, w.Serialize(context.Background(), sample()))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "RunID")
	assert.Contains(t, out, "Tags.[0]")
	assert.Contains(t, out, "Nested.Digest")
	assert.Contains(t, out, "sha256:abc")
	assert.NotContains(t, out, "hidden")
}

func TestWriterTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	require.NoError(t, w.Serialize(context.Background(), struct{}{}))
	assert.Equal(t, "<empty>\n", buf.String())
}

func TestUnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	require.NoError(t, w.Serialize(context.Background(), sample()))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w := NewFileWriterOrStdout(FormatJSON, path)
	require.NoError(t, w.Serialize(context.Background(), sample()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close()) // idempotent

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestNewFileWriterOrStdoutEmptyPath(t *testing.T) {
	w := NewFileWriterOrStdout(FormatJSON, "   ")
	assert.Nil(t, w.closer)
	require.NoError(t, w.Close())
}

func TestFormatHelpers(t *testing.T) {
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("csv").IsUnknown())
	assert.Equal(t, []string{"json", "yaml", "table"}, SupportedFormats())
}

func TestWriterNilOutputUsesStdout(t *testing.T) {
	w := NewWriter(FormatJSON, nil)
	assert.Equal(t, os.Stdout, w.output)
}
