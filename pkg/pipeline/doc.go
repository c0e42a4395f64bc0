// Package pipeline orchestrates the build matrix: it expands the
// configuration into build specs, schedules image builds with bounded
// concurrency, joins sibling architectures at a manifest barrier, pushes
// results through a shared registry session, and aggregates per-job
// outcomes into a run summary.
//
// # Failure isolation
//
// Job-local errors never abort unrelated jobs. A failed build marks its
// spec BuildFailed and, for multi-arch groups, skips the sibling
// architectures waiting at the join barrier (a manifest list cannot be
// assembled with a missing architecture). Push errors are retried with
// bounded backoff before settling into PushFailed. Only configuration and
// authentication errors are pipeline-fatal.
//
// # Cancellation
//
// On cancellation, pending and building jobs transition to Skipped
// promptly; jobs already pushing finish their current attempt so no
// half-published manifest list is left behind.
package pipeline
