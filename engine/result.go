package engine

import (
	"time"

	"github.com/mediakit/mediakit/media"
)

// StageStatus tracks a stage through its lifecycle. A stage starts
// Pending, becomes Ready when every predecessor has finished, Running
// when dispatched, and lands on exactly one terminal status.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageReady     StageStatus = "ready"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// Terminal reports whether the status is a terminal state.
func (s StageStatus) Terminal() bool {
	switch s {
	case StageSucceeded, StageFailed, StageSkipped:
		return true
	}
	return false
}

// SkipReason explains why a stage was skipped instead of run.
type SkipReason string

const (
	// SkipNone marks a stage that was not skipped.
	SkipNone SkipReason = ""

	// SkipPredecessorFailed marks a stage whose every compatible
	// predecessor failed or was itself skipped.
	SkipPredecessorFailed SkipReason = "predecessor_failed"

	// SkipCancelled marks a stage that had not been dispatched when
	// the run context was cancelled.
	SkipCancelled SkipReason = "cancelled"
)

// StageResult records the outcome of a single stage.
type StageResult struct {
	StageID    int
	Capability string
	Status     StageStatus
	Output     media.Payload
	Err        error
	SkipReason SkipReason
	CacheHit   bool
	Fused      bool
	Duration   time.Duration
}

// PipelineStatus summarizes a whole run.
type PipelineStatus string

const (
	// CompleteSuccess means every stage succeeded.
	CompleteSuccess PipelineStatus = "complete_success"

	// PartialSuccess means at least one stage succeeded and at least
	// one failed or was skipped.
	PartialSuccess PipelineStatus = "partial_success"

	// TotalFailure means no stage succeeded.
	TotalFailure PipelineStatus = "total_failure"
)

// PipelineResult is the outcome of one Execute call. Stages is indexed
// by stage ID, which is declaration order in the pipeline text.
type PipelineResult struct {
	RunID    string
	Status   PipelineStatus
	Strategy Strategy
	Stages   []StageResult
	Duration time.Duration
}

// Outputs returns the outputs of the terminal stages, i.e. stages with
// no dependents, in declaration order. Only succeeded stages
// contribute.
func (r *PipelineResult) Outputs(dependents func(id int) []int) []media.Payload {
	var out []media.Payload
	for i := range r.Stages {
		if len(dependents(i)) > 0 {
			continue
		}
		if r.Stages[i].Status == StageSucceeded {
			out = append(out, r.Stages[i].Output)
		}
	}
	return out
}

// Failed returns the results of stages that failed, in declaration
// order.
func (r *PipelineResult) Failed() []StageResult {
	var out []StageResult
	for _, sr := range r.Stages {
		if sr.Status == StageFailed {
			out = append(out, sr)
		}
	}
	return out
}

// BatchResult is the outcome of one ExecuteBatch call. Results is
// indexed by input position.
type BatchResult struct {
	RunID    string
	Results  []*PipelineResult
	Duration time.Duration
}

// Succeeded counts per-input runs that finished with CompleteSuccess.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r != nil && r.Status == CompleteSuccess {
			n++
		}
	}
	return n
}

func pipelineStatus(stages []StageResult) PipelineStatus {
	succeeded, other := 0, 0
	for _, sr := range stages {
		if sr.Status == StageSucceeded {
			succeeded++
		} else {
			other++
		}
	}
	switch {
	case succeeded == 0:
		return TotalFailure
	case other == 0:
		return CompleteSuccess
	default:
		return PartialSuccess
	}
}
