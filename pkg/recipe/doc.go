// Package recipe computes the package-installation parameters for one build
// specification: the Wolfi apk packages, the conda packages that provide the
// CUDA toolkit and framework, the container environment, and the OCI labels
// stamped on the image.
//
// The recipe is an input contract for the build engine. The pipeline itself
// never interprets it; it only carries the parameters from this package to
// whichever engine executes the build.
package recipe
