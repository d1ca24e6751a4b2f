package engine

import (
	"context"
	"sort"

	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/media"
)

// runParallel drains a ready queue through the worker pool. A stage
// becomes ready when all its predecessors reach a terminal status; ties
// are dispatched in declaration order. Failures and skips still count as
// completion for their dependents, which then skip in turn.
func (r *run) runParallel(ctx context.Context) {
	n := r.spec.Len()
	remaining := make([]int, n)
	ready := make([]int, 0, n)
	for id := 0; id < n; id++ {
		remaining[id] = len(r.spec.Stage(id).Predecessors)
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}

	done := make(chan int, n)
	pending := n
	inFlight := 0

	// complete marks a stage terminal for scheduling purposes and
	// promotes dependents whose last predecessor just finished.
	complete := func(id int) {
		pending--
		for _, dep := range r.spec.Dependents(id) {
			remaining[dep]--
			if remaining[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	for pending > 0 {
		for len(ready) > 0 {
			sort.Ints(ready)
			id := ready[0]
			ready = ready[1:]

			if ctx.Err() != nil {
				r.markSkipped(id, SkipCancelled)
				complete(id)
				continue
			}
			stage := r.spec.Stage(id)
			desc, _ := r.engine.registry.Lookup(stage.Capability)
			input, runnable := r.stageInput(stage, desc)
			if !runnable {
				r.markSkipped(id, SkipPredecessorFailed)
				complete(id)
				continue
			}
			if err := r.engine.pool.acquire(ctx); err != nil {
				if errors.IsCode(err, errors.ErrCodeWorkerPoolExhausted) {
					r.results[id].Status = StageFailed
					r.results[id].Err = err
				} else {
					r.markSkipped(id, SkipCancelled)
				}
				complete(id)
				continue
			}

			r.results[id].Status = StageReady
			inFlight++
			go func(id int, input media.Payload) {
				defer r.engine.pool.release()
				r.executeStage(ctx, id, input)
				done <- id
			}(id, input)
		}

		if inFlight == 0 {
			break
		}
		id := <-done
		inFlight--
		complete(id)
	}
}
