// Package dag parses textual pipeline specs into validated stage graphs.
//
// The grammar composes registered capabilities with three operators:
//
//	decode;detect            sequential chaining
//	decode;[detect,embed]    parallel grouping
//	decode+detect            zero-copy fusion hint
//
// Stages take optional ":key=value" configuration suffixes:
//
//	decode;[detect:model=yolo:threshold=0.7,embed]
//
// Build validates every stage against the capability registry — unknown
// names and input-kind mismatches are build-time errors, never runtime
// surprises — and returns an immutable PipelineSpec the scheduler owns
// for the duration of one execution.
package dag
