// Package defaults centralizes timeout, retry, and concurrency defaults for
// the build pipeline. Values here resolve choices the pipeline contract
// leaves to the implementation (push retry count, backoff schedule, worker
// pool sizes) so they are documented and overridable in one place.
package defaults
