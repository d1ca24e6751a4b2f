package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/mediakit/mediakit/cache"
	"github.com/mediakit/mediakit/capability"
	"github.com/mediakit/mediakit/dag"
	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/logger"
	"github.com/mediakit/mediakit/media"
	"github.com/mediakit/mediakit/observability"
)

// Strategy selects how the engine dispatches stages.
type Strategy string

const (
	// StrategySequential runs stages one at a time in declaration
	// order on the calling goroutine.
	StrategySequential Strategy = "sequential"

	// StrategyParallel dispatches every ready stage through the worker
	// pool, overlapping independent branches.
	StrategyParallel Strategy = "parallel"

	// StrategyFused runs sequentially but collapses hinted stage pairs
	// into single fused invocations when one is registered.
	StrategyFused Strategy = "fused"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySequential, StrategyParallel, StrategyFused:
		return true
	}
	return false
}

// Engine executes pipeline graphs. An Engine is safe for concurrent use;
// each Execute call owns its own run state.
type Engine struct {
	registry     *capability.Registry
	cache        *cache.Cache
	log          *logger.Logger
	metrics      *observability.Metrics
	strategy     Strategy
	pool         *workerPool
	batchGate    *workerPool
	workers      int
	poolMaxWait  time.Duration
	stageTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy selects the dispatch strategy. Invalid values are
// ignored and the default (sequential) kept.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		if s.Valid() {
			e.strategy = s
		}
	}
}

// WithCache attaches a result cache. Without one every stage computes.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics attaches stage and cache instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWorkers bounds concurrent stage execution. Defaults to NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithPoolMaxWait bounds how long a dispatch waits for a worker slot
// before failing with ErrCodeWorkerPoolExhausted. Zero waits
// indefinitely.
func WithPoolMaxWait(d time.Duration) Option {
	return func(e *Engine) { e.poolMaxWait = d }
}

// WithStageTimeout bounds each stage invocation. Zero disables the
// per-stage deadline.
func WithStageTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stageTimeout = d }
}

// New creates an Engine over the given capability registry.
func New(registry *capability.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		log:      logger.NewDefault("mediakit").WithComponent("engine"),
		strategy: StrategySequential,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pool = newWorkerPool(e.workers, e.poolMaxWait)
	// Batch fan-out uses its own gate: per-input runs may themselves
	// claim stage pool slots, and sharing one pool could deadlock.
	e.batchGate = newWorkerPool(e.workers, e.poolMaxWait)
	return e
}

// Strategy returns the configured dispatch strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Execute runs the pipeline against one input. The returned error covers
// pre-execution problems only (nil spec, input kind mismatch); stage
// failures are contained in the result, with dependents skipped and
// independent branches allowed to finish.
func (e *Engine) Execute(ctx context.Context, spec *dag.PipelineSpec, input media.Payload) (*PipelineResult, error) {
	if spec == nil || spec.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSpec, "engine: nil or empty pipeline")
	}
	if !input.Kind().Matches(spec.InputKind()) {
		return nil, errors.Newf(errors.ErrCodeKindMismatch,
			"engine: input kind %q does not match pipeline input kind %q",
			input.Kind(), spec.InputKind())
	}

	runID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, "pipeline.execute")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)
	observability.SetSpanAttribute(ctx, observability.AttrStrategy, string(e.strategy))

	log := e.log.WithFields(logger.Fields(
		logger.FieldRunID, runID,
		logger.FieldStrategy, string(e.strategy),
	))
	log.Info("pipeline started", logger.Fields("stages", spec.Len(), "input_kind", string(input.Kind())))

	r := &run{
		engine:  e,
		spec:    spec,
		input:   input,
		runID:   runID,
		log:     log,
		results: make([]StageResult, spec.Len()),
	}
	for i := range r.results {
		r.results[i] = StageResult{
			StageID:    i,
			Capability: spec.Stage(i).Capability,
			Status:     StagePending,
		}
	}

	start := time.Now()
	switch e.strategy {
	case StrategyParallel:
		r.runParallel(ctx)
	case StrategyFused:
		r.runFused(ctx)
	default:
		r.runSequential(ctx)
	}

	result := &PipelineResult{
		RunID:    runID,
		Status:   pipelineStatus(r.results),
		Strategy: e.strategy,
		Stages:   r.results,
		Duration: time.Since(start),
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(result.Status))
	log.Info("pipeline finished", logger.Fields(
		logger.FieldStatus, string(result.Status),
		logger.FieldDuration, result.Duration.String(),
	))
	return result, nil
}

// run holds the mutable state of one Execute call. Strategies record
// into results; each slot is written exactly once by whichever goroutine
// executes the stage, and read by the coordinator only after completion.
type run struct {
	engine  *Engine
	spec    *dag.PipelineSpec
	input   media.Payload
	runID   string
	log     *logger.Logger
	results []StageResult
}

// stageInput resolves the payload a stage consumes. Root stages take the
// pipeline input. Other stages take the output of the succeeded
// predecessor whose kind the capability accepts; several compatible
// survivors are aggregated into a list payload.
func (r *run) stageInput(stage dag.Stage, desc capability.Descriptor) (media.Payload, bool) {
	if len(stage.Predecessors) == 0 {
		return r.input, true
	}
	var compatible []media.Payload
	for _, pred := range stage.Predecessors {
		pr := r.results[pred]
		if pr.Status != StageSucceeded {
			continue
		}
		if desc.Accepts(pr.Output.Kind()) {
			compatible = append(compatible, pr.Output)
		}
	}
	switch len(compatible) {
	case 0:
		return media.Payload{}, false
	case 1:
		return compatible[0], true
	default:
		kind := compatible[0].Kind()
		for _, p := range compatible[1:] {
			if p.Kind() != kind {
				kind = media.KindAny
				break
			}
		}
		return media.List(compatible, kind), true
	}
}

// markSkipped records a terminal skip for a stage.
func (r *run) markSkipped(id int, reason SkipReason) {
	r.results[id].Status = StageSkipped
	r.results[id].SkipReason = reason
	r.log.Debug("stage skipped", logger.Fields(
		logger.FieldStage, id,
		logger.FieldCapability, r.results[id].Capability,
		"reason", string(reason),
	))
}

// executeStage runs one stage to a terminal status and records the
// result. The caller has already decided the stage is runnable.
func (r *run) executeStage(ctx context.Context, id int, input media.Payload) {
	stage := r.spec.Stage(id)
	r.results[id].Status = StageRunning

	ctx, span := observability.StartSpan(ctx, "stage.execute")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStage, stage.Capability)
	observability.SetSpanAttribute(ctx, observability.AttrCapability, stage.Capability)
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStageStart(ctx)
	}

	start := time.Now()
	output, hit, err := r.engine.invoke(ctx, stage, input)
	elapsed := time.Since(start)

	r.results[id].Duration = elapsed
	r.results[id].CacheHit = hit
	if err != nil {
		r.results[id].Status = StageFailed
		r.results[id].Err = err
		observability.SetSpanError(ctx, err)
		if r.engine.metrics != nil {
			r.engine.metrics.RecordStage(ctx, stage.Capability, "failed", elapsed)
			r.engine.metrics.RecordError(ctx, string(errors.CodeOf(err)), stage.Capability)
		}
		r.log.Warn("stage failed", logger.ErrorFields(stage.Capability, err))
		return
	}

	r.results[id].Status = StageSucceeded
	r.results[id].Output = output
	observability.SetSpanAttribute(ctx, observability.AttrCacheHit, boolString(hit))
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStage(ctx, stage.Capability, "succeeded", elapsed)
	}
	r.log.Debug("stage succeeded", logger.Fields(
		logger.FieldStage, id,
		logger.FieldCapability, stage.Capability,
		logger.FieldDuration, elapsed.String(),
		"cache_hit", hit,
	))
}

// invoke performs one capability call, consulting the cache first when
// one is configured. The bool reports whether the output came from the
// cache (or was shared with a concurrent identical computation) rather
// than computed by this call.
func (e *Engine) invoke(ctx context.Context, stage dag.Stage, input media.Payload) (media.Payload, bool, error) {
	inv, ok := e.registry.Invoker(stage.Capability)
	if !ok {
		return media.Payload{}, false, errors.Newf(errors.ErrCodeUnknownCapability,
			"engine: capability %q disappeared from registry", stage.Capability)
	}
	return e.invokeWith(ctx, inv, stage.Capability, stage.Options, input)
}

// invokeWith shares the cache-consult path between ordinary stages and
// fused pair invocations, which carry a synthetic "a+b" capability name.
func (e *Engine) invokeWith(ctx context.Context, inv capability.Invoker, name string, options map[string]string, input media.Payload) (media.Payload, bool, error) {
	compute := func() (media.Payload, error) {
		return e.invokeDirect(ctx, inv, name, options, input)
	}

	if e.cache == nil {
		out, err := compute()
		return out, false, err
	}

	key, err := cache.KeyFor(name, options, input)
	if err != nil {
		// Unfingerprintable input (e.g. unreadable file ref): compute
		// without caching rather than fail the stage early.
		out, cerr := compute()
		return out, false, cerr
	}

	computed := false
	out, err := e.cache.GetOrCompute(ctx, key, func() (media.Payload, error) {
		computed = true
		if e.metrics != nil {
			e.metrics.RecordCacheMiss(ctx, name)
		}
		return compute()
	})
	if err != nil {
		// Surface the capability's own error, not the cache envelope, so
		// timeout and rejection codes stay visible in stage results.
		var app *errors.AppError
		if errors.As(err, &app) && app.Code == errors.ErrCodeComputeFailed && app.Cause != nil {
			err = app.Cause
		}
		if !errors.As(err, &app) && errors.Is(err, context.Canceled) {
			err = errors.Newf(errors.ErrCodeCancelled,
				"capability %q cancelled while waiting for shared computation", name).WithCause(err)
		}
		return media.Payload{}, false, err
	}
	hit := !computed
	if hit && e.metrics != nil {
		e.metrics.RecordCacheHit(ctx, name)
	}
	return out, hit, nil
}

// invokeDirect calls the invoker with the per-stage timeout applied and
// normalizes timeout and cancellation into coded errors.
func (e *Engine) invokeDirect(ctx context.Context, inv capability.Invoker, name string, options map[string]string, input media.Payload) (media.Payload, error) {
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	resp, err := inv.Invoke(ctx, capability.Request{Input: input, Options: options})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return media.Payload{}, errors.Newf(errors.ErrCodeTimeout,
				"capability %q exceeded stage timeout %s", name, e.stageTimeout).WithCause(err)
		case errors.Is(err, context.Canceled):
			return media.Payload{}, errors.Newf(errors.ErrCodeCancelled,
				"capability %q cancelled", name).WithCause(err)
		}
		return media.Payload{}, err
	}
	return resp.Output, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
