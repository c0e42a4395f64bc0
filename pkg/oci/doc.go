// Package oci derives registry tags for build specifications and pushes
// built images to OCI-compliant registries.
//
// # Tag naming
//
// Every (os, cuda, python, framework) group publishes under one final tag:
//
//	{registry}/{owner}/{repository}:{os}_python_{py}_cuda_{cuda}_{framework}
//
// The architecture is intentionally absent from the final tag: multi-arch
// publishing assembles a single manifest list per group so one pullable
// reference serves both amd64 and arm64. Each per-architecture image is
// first pushed under an intermediate tag carrying an architecture suffix
// (e.g. "..._base_amd64"); those tags exist only for manifest assembly and
// are never reported as published references.
//
// # Registry operations
//
// Login authenticates once per pipeline run and returns an immutable
// Session. The Session is threaded read-only through every worker; no
// worker re-authenticates. Pushes copy from local OCI image layouts using
// the ORAS library, and manifest lists are assembled by resolving the
// per-architecture manifests on the remote repository and pushing an OCI
// image index referencing them.
package oci
