// Package engine executes validated pipeline graphs against registered
// capabilities.
//
// One entry point serves four dispatch strategies:
//
//	eng := engine.New(registry,
//	    engine.WithStrategy(engine.StrategyParallel),
//	    engine.WithCache(cache.New(budget)),
//	)
//	result := eng.Execute(ctx, spec, input)
//
// Sequential runs one stage at a time on the calling goroutine, for
// debugging and deterministic reproduction. Parallel drains a ready
// queue through a bounded worker pool, overlapping independent
// branches. Fused collapses hinted stage pairs into single zero-copy
// invocations when a fused implementation is registered. ExecuteBatch
// applies the same graph to many inputs concurrently with per-input
// failure isolation.
//
// A stage failure never aborts the pipeline: dependents are skipped,
// independent branches continue, and the result reports PartialSuccess
// so callers can salvage usable output.
package engine
