/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"fmt"
	"time"

	"github.com/wolfi-cuda/builder/pkg/matrix"
)

// State is a job's position in its lifecycle:
//
//	Pending → Building → (Built | BuildFailed)
//	Built → Pushing → (Published | PushFailed)
//
// Skipped is terminal for jobs that never ran (cancellation) or whose
// sibling architecture failed at the manifest join barrier.
type State string

const (
	StatePending     State = "pending"
	StateBuilding    State = "building"
	StateBuilt       State = "built"
	StateBuildFailed State = "build_failed"
	StatePushing     State = "pushing"
	StatePublished   State = "published"
	StatePushFailed  State = "push_failed"
	StateSkipped     State = "skipped"
)

// Terminal reports whether no further transition can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StatePublished, StateBuildFailed, StatePushFailed, StateSkipped:
		return true
	default:
		return false
	}
}

// Status classifies a terminal outcome for reporting.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// statusOf maps a terminal state to its reporting status.
func statusOf(s State) Status {
	switch s {
	case StatePublished:
		return StatusSuccess
	case StateSkipped:
		return StatusSkipped
	default:
		return StatusFailed
	}
}

// Event records one state transition. Events are the pipeline's only
// side channel; the orchestration core is otherwise silent.
type Event struct {
	Spec matrix.BuildSpec `json:"spec" yaml:"spec"`
	From State            `json:"from" yaml:"from"`
	To   State            `json:"to" yaml:"to"`
	At   time.Time        `json:"at" yaml:"at"`
}

// EventSink consumes state transition events. Implementations must be
// safe for concurrent use; the pipeline emits from multiple workers.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Emit implements EventSink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Outcome is the immutable terminal record for one build spec.
type Outcome struct {
	Spec  matrix.BuildSpec `json:"spec" yaml:"spec"`
	State State            `json:"state" yaml:"state"`
	// Status derives from State; kept explicit for report serialization.
	Status Status `json:"status" yaml:"status"`
	// Reference is the published reference. Present only on success.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	// Digest is the published manifest digest. Present only on success.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
	// Error is the captured failure. Present only on failure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Duration covers the job from dequeue to terminal state.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Summary aggregates every outcome of one pipeline invocation. It exists
// only for the duration of the run and is consumed by the report layer.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Outcomes  []Outcome     `json:"outcomes" yaml:"outcomes"`
}

// HasFailures reports whether any job ended in a failed state. The process
// exit code follows this.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// String returns a one-line human-readable run summary.
func (s *Summary) String() string {
	return fmt.Sprintf("published %d/%d images (%d failed, %d skipped) in %v",
		s.Succeeded, s.Total, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
}
