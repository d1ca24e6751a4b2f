package engine

import "context"

// runSequential executes stages one at a time in declaration order,
// which is a valid topological order by construction. A failed stage
// does not stop the walk; its dependents skip when their turn comes.
func (r *run) runSequential(ctx context.Context) {
	for id := 0; id < r.spec.Len(); id++ {
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
		r.executeStage(ctx, id, input)
	}
}
