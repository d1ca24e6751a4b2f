package dag

import "github.com/mediakit/mediakit/media"

// Mode describes how a stage was composed into the pipeline.
type Mode int

const (
	// Sequential stages depend on the whole previous segment.
	Sequential Mode = iota
	// ParallelSibling stages share a predecessor and run independently.
	ParallelSibling
	// Fused stages carry a fusion hint with an adjacent stage.
	Fused
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case ParallelSibling:
		return "parallel"
	case Fused:
		return "fused"
	}
	return "unknown"
}

// NoFusion marks a stage without a fusion partner.
const NoFusion = -1

// Stage is one node in a pipeline graph: one capability invocation with
// resolved configuration.
type Stage struct {
	// ID is the stage's index in declaration order.
	ID int
	// Capability is the registry name this stage invokes.
	Capability string
	// Options is the resolved configuration (schema defaults applied).
	Options map[string]string
	// Predecessors lists stage IDs this stage depends on, in declaration
	// order. Empty for root stages.
	Predecessors []int
	// Mode records the composition operator that produced this stage.
	Mode Mode
	// FusedWith is the ID of the stage this one requests fusion with
	// (the downstream member of the pair), or NoFusion.
	FusedWith int
}

// PipelineSpec is a validated, immutable DAG of stages. It is built once
// per invocation and owned exclusively by the scheduler during execution.
type PipelineSpec struct {
	source    string
	inputKind media.Kind
	stages    []Stage
	levels    [][]int
}

// Source returns the spec text this pipeline was built from.
func (p *PipelineSpec) Source() string { return p.source }

// InputKind returns the declared kind of the original input.
func (p *PipelineSpec) InputKind() media.Kind { return p.inputKind }

// Stages returns all stages in declaration order. Callers must not
// mutate the returned slice.
func (p *PipelineSpec) Stages() []Stage { return p.stages }

// Stage returns the stage with the given ID.
func (p *PipelineSpec) Stage(id int) Stage { return p.stages[id] }

// Len returns the number of stages.
func (p *PipelineSpec) Len() int { return len(p.stages) }

// Levels groups stage IDs by dependency depth; stages within one level
// have no edges between them and may run concurrently. IDs within a
// level keep declaration order.
func (p *PipelineSpec) Levels() [][]int { return p.levels }

// Dependents returns the IDs of stages that depend on the given stage,
// in declaration order.
func (p *PipelineSpec) Dependents(id int) []int {
	var out []int
	for _, s := range p.stages {
		for _, pred := range s.Predecessors {
			if pred == id {
				out = append(out, s.ID)
				break
			}
		}
	}
	return out
}
