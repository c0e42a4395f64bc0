/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/wolfi-cuda/builder/pkg/defaults"
	"github.com/wolfi-cuda/builder/pkg/engine"
	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
	"github.com/wolfi-cuda/builder/pkg/matrix"
	"github.com/wolfi-cuda/builder/pkg/oci"
	"github.com/wolfi-cuda/builder/pkg/recipe"
)

// Registry is the slice of the registry session the pipeline needs.
// *oci.Session satisfies it.
type Registry interface {
	Push(ctx context.Context, repoPath, layoutPath, localRef, tag string) (*oci.PushReceipt, error)
	CreateManifestList(ctx context.Context, namer oci.Namer, group []matrix.BuildSpec) (*oci.PushReceipt, error)
}

// Pipeline drives a full matrix run: build, join, push, report.
type Pipeline struct {
	engine   engine.Engine
	registry Registry
	namer    oci.Namer

	buildConcurrency int
	pushConcurrency  int64
	buildTimeout     time.Duration
	pushTimeout      time.Duration
	backoff          Backoff
	sleep            sleeper
	sink             EventSink
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBuildConcurrency bounds the number of concurrent image builds.
func WithBuildConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.buildConcurrency = n
		}
	}
}

// WithPushConcurrency bounds the number of concurrent registry pushes.
func WithPushConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.pushConcurrency = int64(n)
		}
	}
}

// WithBuildTimeout caps the wall-clock duration of a single image build.
func WithBuildTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.buildTimeout = d
		}
	}
}

// WithPushTimeout caps the wall-clock duration of a single push attempt.
func WithPushTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.pushTimeout = d
		}
	}
}

// WithBackoff replaces the push retry schedule.
func WithBackoff(b Backoff) Option {
	return func(p *Pipeline) {
		if b.Attempts > 0 {
			p.backoff = b
		}
	}
}

// WithEventSink registers a consumer for state transition events.
func WithEventSink(s EventSink) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sink = s
		}
	}
}

// withSleep replaces the backoff sleep. Test hook.
func withSleep(s sleeper) Option {
	return func(p *Pipeline) { p.sleep = s }
}

// New creates a Pipeline over the given build engine and registry session.
func New(eng engine.Engine, reg Registry, namer oci.Namer, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:           eng,
		registry:         reg,
		namer:            namer,
		buildConcurrency: defaults.BuildConcurrency,
		pushConcurrency:  defaults.PushConcurrency,
		buildTimeout:     defaults.BuildTimeout,
		pushTimeout:      defaults.PushTimeout,
		backoff:          DefaultBackoff(),
		sleep:            sleepContext,
		sink:             SinkFunc(func(Event) {}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// buildResult carries one build's terminal build-stage state to the
// push stage join barrier.
type buildResult struct {
	spec     matrix.BuildSpec
	artifact *engine.Artifact
	state    State // StateBuilt, StateBuildFailed or StateSkipped
	err      error
	started  time.Time
}

// jobGroup joins the sibling architectures of one matrix triple.
type jobGroup struct {
	triple  matrix.Triple
	specs   []matrix.BuildSpec
	results chan *buildResult
}

// Run executes every job of the expanded matrix and returns the run
// summary. A non-nil error is returned only for run-fatal conditions
// (invalid matrix, authentication); job failures are reported through
// the summary instead.
func (p *Pipeline) Run(ctx context.Context, cfg matrix.Config) (*Summary, error) {
	specs, err := matrix.Expand(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.namer.ValidateMatrix(specs); err != nil {
		return nil, err
	}

	start := time.Now()
	rec := newRecorder(specs)

	byTriple, order := matrix.GroupByTriple(specs)
	groups := make([]*jobGroup, 0, len(order))
	groupOf := make(map[matrix.Triple]*jobGroup, len(order))
	for _, t := range order {
		g := &jobGroup{
			triple:  t,
			specs:   byTriple[t],
			results: make(chan *buildResult, len(byTriple[t])),
		}
		groups = append(groups, g)
		groupOf[t] = g
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var builders errgroup.Group
	builders.SetLimit(p.buildConcurrency)
	for _, spec := range specs {
		builders.Go(func() error {
			groupOf[spec.Triple()].results <- p.build(runCtx, spec)
			return nil
		})
	}

	sem := semaphore.NewWeighted(p.pushConcurrency)
	var pushers errgroup.Group
	for _, g := range groups {
		pushers.Go(func() error {
			p.join(ctx, runCtx, cancel, cfg.MultiArch, g, sem, rec)
			return nil
		})
	}

	_ = builders.Wait() // workers report through result channels
	_ = pushers.Wait()

	return rec.summary(time.Since(start)), nil
}

// build runs one image build and returns its build-stage result.
func (p *Pipeline) build(ctx context.Context, spec matrix.BuildSpec) *buildResult {
	started := time.Now()
	res := &buildResult{spec: spec, started: started}

	if ctx.Err() != nil {
		res.state = StateSkipped
		p.emit(spec, StatePending, StateSkipped)
		return res
	}
	p.emit(spec, StatePending, StateBuilding)

	params, err := recipe.For(spec, p.namer.Owner, p.namer.Repository)
	if err != nil {
		res.state, res.err = StateBuildFailed, err
		p.emit(spec, StateBuilding, StateBuildFailed)
		buildsTotal.WithLabelValues("failed").Inc()
		return res
	}

	bctx, cancel := context.WithTimeout(ctx, p.buildTimeout)
	defer cancel()
	artifact, err := p.engine.Build(bctx, spec, params)
	buildDuration.Observe(time.Since(started).Seconds())

	switch {
	case err != nil && ctx.Err() != nil:
		// The run was cancelled, not the job; the job never completed.
		res.state = StateSkipped
		p.emit(spec, StateBuilding, StateSkipped)
	case err != nil:
		res.state, res.err = StateBuildFailed, err
		p.emit(spec, StateBuilding, StateBuildFailed)
		buildsTotal.WithLabelValues("failed").Inc()
		slog.Error("build failed", "spec", spec.String(), "error", err)
	default:
		res.state, res.artifact = StateBuilt, artifact
		p.emit(spec, StateBuilding, StateBuilt)
		buildsTotal.WithLabelValues("built").Inc()
	}
	return res
}

// join collects the group's build results at the manifest barrier and,
// when all siblings built, runs the group's push under the push semaphore.
// parent is the caller's context: pushes outlive runCtx cancellation so an
// in-flight attempt can finish cleanly.
func (p *Pipeline) join(parent, runCtx context.Context, cancelRun context.CancelFunc,
	multiArch bool, g *jobGroup, sem *semaphore.Weighted, rec *recorder) {

	results := make(map[matrix.Architecture]*buildResult, len(g.specs))
	for range g.specs {
		r := <-g.results
		results[r.spec.Architecture] = r
	}

	complete := true
	for _, r := range results {
		if r.state != StateBuilt {
			complete = false
			rec.record(r.spec, r.state, nil, r.err, time.Since(r.started))
		}
	}
	if !complete {
		// A missing architecture makes the manifest list unassemblable;
		// built siblings are skipped rather than half-published.
		for _, r := range results {
			if r.state == StateBuilt {
				p.emit(r.spec, StateBuilt, StateSkipped)
				rec.record(r.spec, StateSkipped, nil, nil, time.Since(r.started))
			}
		}
		return
	}

	if err := sem.Acquire(runCtx, 1); err != nil {
		p.skipGroup(results, rec)
		return
	}
	defer sem.Release(1)
	if runCtx.Err() != nil {
		p.skipGroup(results, rec)
		return
	}

	for _, r := range results {
		p.emit(r.spec, StateBuilt, StatePushing)
	}

	receipt, err := p.pushGroup(parent, runCtx, multiArch, g, results)
	for _, r := range results {
		if err != nil {
			p.emit(r.spec, StatePushing, StatePushFailed)
			rec.record(r.spec, StatePushFailed, nil, err, time.Since(r.started))
		} else {
			p.emit(r.spec, StatePushing, StatePublished)
			rec.record(r.spec, StatePublished, receipt, nil, time.Since(r.started))
		}
	}
	if err != nil {
		pushesTotal.WithLabelValues("failed").Inc()
		slog.Error("push failed", "triple", g.triple.String(), "error", err)
		if oci.IsAuthError(err) {
			// Credentials rejected mid-run; no further push can succeed.
			cancelRun()
		}
		return
	}
	pushesTotal.WithLabelValues("published").Inc()
	slog.Info("published", "reference", receipt.Reference, "digest", receipt.Digest)
}

// pushGroup publishes one triple: the single image directly under the
// final tag, or each architecture under its intermediate tag followed by
// the manifest list. The whole operation is one retry unit.
func (p *Pipeline) pushGroup(parent, runCtx context.Context, multiArch bool,
	g *jobGroup, results map[matrix.Architecture]*buildResult) (*oci.PushReceipt, error) {

	var receipt *oci.PushReceipt

	_, err := retryPush(runCtx, p.backoff, p.sleep, func() error {
		// Detached from run cancellation: an attempt in flight finishes.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(parent), p.pushTimeout)
		defer cancel()

		if err := p.pushAttempt(pctx, multiArch, g, results, &receipt); err != nil {
			if pctx.Err() != nil && !oci.IsAuthError(err) {
				return apperrors.Wrap(apperrors.ErrCodeTimeout, "push attempt timed out", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// pushAttempt is one try of the group's publish sequence.
func (p *Pipeline) pushAttempt(pctx context.Context, multiArch bool,
	g *jobGroup, results map[matrix.Architecture]*buildResult, receipt **oci.PushReceipt) error {

	repoPath := p.namer.RepositoryPath()

	if !multiArch {
		r := results[g.specs[0].Architecture]
		got, err := p.registry.Push(pctx, repoPath,
			r.artifact.LayoutPath, r.artifact.LocalRef, p.namer.Tag(g.triple))
		if err != nil {
			return err
		}
		*receipt = got
		return nil
	}

	for _, spec := range g.specs {
		r := results[spec.Architecture]
		if _, err := p.registry.Push(pctx, repoPath,
			r.artifact.LayoutPath, r.artifact.LocalRef, p.namer.IntermediateTag(spec)); err != nil {
			return err
		}
	}
	got, err := p.registry.CreateManifestList(pctx, p.namer, g.specs)
	if err != nil {
		return err
	}
	manifestListsTotal.Inc()
	*receipt = got
	return nil
}

func (p *Pipeline) skipGroup(results map[matrix.Architecture]*buildResult, rec *recorder) {
	for _, r := range results {
		p.emit(r.spec, StateBuilt, StateSkipped)
		rec.record(r.spec, StateSkipped, nil, nil, time.Since(r.started))
	}
}

func (p *Pipeline) emit(spec matrix.BuildSpec, from, to State) {
	p.sink.Emit(Event{Spec: spec, From: from, To: to, At: time.Now()})
}

// recorder accumulates outcomes in matrix order under a lock.
type recorder struct {
	mu       sync.Mutex
	index    map[string]int
	outcomes []Outcome
}

func newRecorder(specs []matrix.BuildSpec) *recorder {
	r := &recorder{
		index:    make(map[string]int, len(specs)),
		outcomes: make([]Outcome, len(specs)),
	}
	for i, s := range specs {
		r.index[s.String()] = i
		r.outcomes[i] = Outcome{Spec: s}
	}
	return r
}

func (r *recorder) record(spec matrix.BuildSpec, state State, receipt *oci.PushReceipt, err error, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := &r.outcomes[r.index[spec.String()]]
	o.State = state
	o.Status = statusOf(state)
	o.Duration = d
	if receipt != nil {
		o.Reference = receipt.Reference
		o.Digest = receipt.Digest
	}
	if err != nil {
		o.Error = err.Error()
	}
}

func (r *recorder) summary(d time.Duration) *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Summary{
		RunID:    uuid.New().String(),
		Total:    len(r.outcomes),
		Duration: d,
		Outcomes: append([]Outcome(nil), r.outcomes...),
	}
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}
