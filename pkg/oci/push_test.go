package oci

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLayoutIndex(t *testing.T, manifests []ocispec.Descriptor) string {
	t.Helper()
	dir := t.TempDir()
	index := ocispec.Index{MediaType: ocispec.MediaTypeImageIndex, Manifests: manifests}
	data, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ocispec.ImageIndexFile), data, 0600))
	return dir
}

func TestSoleManifest(t *testing.T) {
	want := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Size:      123,
	}
	dir := writeLayoutIndex(t, []ocispec.Descriptor{want})

	got, err := soleManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, want.Digest, got.Digest)
}

func TestSoleManifestEmptyLayout(t *testing.T) {
	dir := writeLayoutIndex(t, nil)
	_, err := soleManifest(dir)
	assert.Error(t, err)
}

func TestSoleManifestMultipleImages(t *testing.T) {
	dir := writeLayoutIndex(t, []ocispec.Descriptor{
		{Digest: "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		{Digest: "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
	})
	_, err := soleManifest(dir)
	assert.Error(t, err)
}

func TestSoleManifestMissingIndex(t *testing.T) {
	_, err := soleManifest(t.TempDir())
	assert.Error(t, err)
}
