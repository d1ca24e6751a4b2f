package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediakit/mediakit/dag"
	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/logger"
	"github.com/mediakit/mediakit/media"
	"github.com/mediakit/mediakit/observability"
)

// ExecuteBatch applies one pipeline to many independent inputs, fanning
// out through the worker pool. Inputs are isolated: one input's failure
// never affects another's run, and results keep input order. Each
// per-input run uses the engine's configured single-input strategy.
//
// With a shared cache attached, identical stage computations across
// inputs deduplicate: concurrent duplicates join the first in-flight
// computation instead of recomputing.
func (e *Engine) ExecuteBatch(ctx context.Context, spec *dag.PipelineSpec, inputs []media.Payload) (*BatchResult, error) {
	if spec == nil || spec.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSpec, "engine: nil or empty pipeline")
	}
	if len(inputs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSpec, "engine: batch has no inputs")
	}

	batchID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, "pipeline.execute_batch")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, batchID)

	log := e.log.WithFields(logger.Fields(logger.FieldRunID, batchID))
	log.Info("batch started", logger.Fields("inputs", len(inputs), "stages", spec.Len()))

	start := time.Now()
	results := make([]*PipelineResult, len(inputs))
	var wg sync.WaitGroup

	for i, input := range inputs {
		if err := e.batchGate.acquire(ctx); err != nil {
			// Remaining inputs share the acquisition failure; runs
			// already dispatched finish normally.
			for j := i; j < len(inputs); j++ {
				results[j] = abortedRun(spec, e.strategy, err)
			}
			break
		}
		wg.Add(1)
		go func(i int, input media.Payload) {
			defer wg.Done()
			defer e.batchGate.release()
			res, err := e.Execute(ctx, spec, input)
			if err != nil {
				res = failedRun(spec, e.strategy, err)
			}
			results[i] = res
		}(i, input)
	}
	wg.Wait()

	batch := &BatchResult{
		RunID:    batchID,
		Results:  results,
		Duration: time.Since(start),
	}
	log.Info("batch finished", logger.Fields(
		"succeeded", batch.Succeeded(),
		"inputs", len(inputs),
		logger.FieldDuration, batch.Duration.String(),
	))
	return batch, nil
}

// failedRun builds a result for an input whose run could not start: all
// stages skipped, the first carrying the error.
func failedRun(spec *dag.PipelineSpec, strategy Strategy, err error) *PipelineResult {
	r := skippedRun(spec, strategy)
	r.Stages[0].Status = StageFailed
	r.Stages[0].Err = err
	r.Stages[0].SkipReason = SkipNone
	return r
}

// skippedRun builds a result for an undispatched input: every stage
// Skipped for cancellation.
func skippedRun(spec *dag.PipelineSpec, strategy Strategy) *PipelineResult {
	stages := make([]StageResult, spec.Len())
	for i := range stages {
		stages[i] = StageResult{
			StageID:    i,
			Capability: spec.Stage(i).Capability,
			Status:     StageSkipped,
			SkipReason: SkipCancelled,
		}
	}
	return &PipelineResult{
		RunID:    uuid.NewString(),
		Status:   TotalFailure,
		Strategy: strategy,
		Stages:   stages,
	}
}

// abortedRun records a gate acquisition failure. Pool exhaustion is a
// real failure worth surfacing on the run; cancellation just marks the
// undispatched work skipped.
func abortedRun(spec *dag.PipelineSpec, strategy Strategy, err error) *PipelineResult {
	if errors.IsCode(err, errors.ErrCodeWorkerPoolExhausted) {
		return failedRun(spec, strategy, err)
	}
	return skippedRun(spec, strategy)
}
