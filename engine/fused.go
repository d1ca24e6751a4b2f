package engine

import (
	"context"
	"time"

	"github.com/mediakit/mediakit/capability"
	"github.com/mediakit/mediakit/dag"
	"github.com/mediakit/mediakit/logger"
	"github.com/mediakit/mediakit/media"
	"github.com/mediakit/mediakit/observability"
)

// runFused walks stages in declaration order like the sequential
// strategy, but when a stage carries a fusion hint and a fused
// implementation is registered for the pair, both stages execute as one
// invocation on the producer's input. The producer's intermediate
// payload is never materialized; the consumer records the fused output.
// Pairs without a registered fused implementation fall back to two
// ordinary stages, so fusing never changes observable results.
func (r *run) runFused(ctx context.Context) {
	consumed := make([]bool, r.spec.Len())

	for id := 0; id < r.spec.Len(); id++ {
		if consumed[id] {
			continue
		}
		if ctx.Err() != nil {
			r.markSkipped(id, SkipCancelled)
			continue
		}
		stage := r.spec.Stage(id)
		desc, _ := r.engine.registry.Lookup(stage.Capability)
		input, runnable := r.stageInput(stage, desc)
		if !runnable {
			r.markSkipped(id, SkipPredecessorFailed)
			continue
		}

		if partner := stage.FusedWith; partner != dag.NoFusion {
			partnerCap := r.spec.Stage(partner).Capability
			if inv, ok := r.engine.registry.FusedImplFor(stage.Capability, partnerCap); ok {
				r.executeFusedPair(ctx, id, partner, inv, input)
				consumed[partner] = true
				continue
			}
			r.log.Debug("no fused implementation, falling back", logger.Fields(
				logger.FieldCapability, stage.Capability,
				"partner", partnerCap,
			))
		}
		r.executeStage(ctx, id, input)
	}
}

// executeFusedPair runs the producer/consumer pair as one invocation.
// The pair succeeds or fails as a unit: on failure the producer records
// the error and the consumer skips.
func (r *run) executeFusedPair(ctx context.Context, producer, consumer int, inv capability.Invoker, input media.Payload) {
	prodCap := r.spec.Stage(producer).Capability
	consCap := r.spec.Stage(consumer).Capability
	name := prodCap + "+" + consCap
	options := mergeFusedOptions(prodCap, r.spec.Stage(producer).Options, consCap, r.spec.Stage(consumer).Options)

	r.results[producer].Status = StageRunning
	r.results[consumer].Status = StageRunning

	ctx, span := observability.StartSpan(ctx, "stage.execute_fused")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrCapability, name)
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStageStart(ctx)
	}

	start := time.Now()
	output, hit, err := r.engine.invokeWith(ctx, inv, name, options, input)
	elapsed := time.Since(start)

	for _, id := range []int{producer, consumer} {
		r.results[id].Duration = elapsed
		r.results[id].CacheHit = hit
		r.results[id].Fused = true
	}

	if err != nil {
		r.results[producer].Status = StageFailed
		r.results[producer].Err = err
		r.results[consumer].Status = StageSkipped
		r.results[consumer].SkipReason = SkipPredecessorFailed
		observability.SetSpanError(ctx, err)
		if r.engine.metrics != nil {
			r.engine.metrics.RecordStage(ctx, name, "failed", elapsed)
		}
		r.log.Warn("fused pair failed", logger.ErrorFields(name, err))
		return
	}

	r.results[producer].Status = StageSucceeded
	r.results[consumer].Status = StageSucceeded
	r.results[consumer].Output = output
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStage(ctx, name, "succeeded", elapsed)
	}
	r.log.Debug("fused pair succeeded", logger.Fields(
		logger.FieldCapability, name,
		logger.FieldDuration, elapsed.String(),
		"cache_hit", hit,
	))
}

// mergeFusedOptions namespaces each member's options under its
// capability name so the fused implementation can tell them apart.
func mergeFusedOptions(prodCap string, prodOpts map[string]string, consCap string, consOpts map[string]string) map[string]string {
	merged := make(map[string]string, len(prodOpts)+len(consOpts))
	for k, v := range prodOpts {
		merged[prodCap+"."+k] = v
	}
	for k, v := range consOpts {
		merged[consCap+"."+k] = v
	}
	return merged
}
