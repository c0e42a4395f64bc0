// Package engine builds container images for build specifications.
//
// The pipeline treats an engine as an opaque collaborator: it hands over a
// spec plus recipe parameters and receives an image artifact (an OCI image
// layout on disk) or an error. The default implementation shells out to
// docker buildx; tests substitute fakes.
package engine
