package dag

import (
	"github.com/mediakit/mediakit/capability"
	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/media"
)

// Builder turns spec text into validated pipeline graphs, checking every
// stage against a capability registry.
type Builder struct {
	registry *capability.Registry
}

// NewBuilder creates a Builder backed by the given registry.
func NewBuilder(registry *capability.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build parses spec text and validates the resulting graph:
//
//   - every capability name must exist in the registry,
//   - every stage's input kind must be satisfiable by the original input
//     (root stages) or by at least one predecessor's output kind,
//   - stage options must resolve against the capability's schema.
//
// Any violation yields a *BuildError naming the offending stage; nothing
// executes on failure. The grammar is non-recursive and strictly
// left-to-right, so the produced graph is acyclic by construction; Levels
// verifies it anyway.
func (b *Builder) Build(text string, inputKind media.Kind) (*PipelineSpec, error) {
	if !inputKind.Valid() {
		return nil, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "unknown input kind %q", inputKind)
	}

	segments, err := parseSpec(text)
	if err != nil {
		return nil, err
	}

	stages := assemble(segments)

	for i := range stages {
		if err := b.validate(&stages[i], stages, inputKind); err != nil {
			return nil, err
		}
	}

	levels, err := buildLevels(stages)
	if err != nil {
		return nil, err
	}

	return &PipelineSpec{
		source:    text,
		inputKind: inputKind,
		stages:    stages,
		levels:    levels,
	}, nil
}

// assemble assigns IDs in declaration order and wires dependency edges:
// each segment depends on the exits of the previous segment, group
// members are siblings, and fusion chains link member to member.
func assemble(segments []segment) []Stage {
	var stages []Stage
	var prevExits []int

	for _, seg := range segments {
		var exits []int
		for _, el := range seg.elements {
			chainPrev := NoFusion
			for _, draft := range el.chain {
				stage := Stage{
					ID:         len(stages),
					Capability: draft.name,
					Options:    draft.options,
					Mode:       Sequential,
					FusedWith:  NoFusion,
				}
				if seg.group {
					stage.Mode = ParallelSibling
				}
				if chainPrev != NoFusion {
					stage.Mode = Fused
					stage.Predecessors = []int{chainPrev}
					stages[chainPrev].FusedWith = stage.ID
					if stages[chainPrev].Mode != Fused {
						stages[chainPrev].Mode = Fused
					}
				} else if len(prevExits) > 0 {
					stage.Predecessors = append([]int(nil), prevExits...)
				}
				stages = append(stages, stage)
				chainPrev = stage.ID
			}
			exits = append(exits, chainPrev)
		}
		prevExits = exits
	}
	return stages
}

func (b *Builder) validate(stage *Stage, all []Stage, inputKind media.Kind) error {
	desc, ok := b.registry.Lookup(stage.Capability)
	if !ok {
		return buildErrf(errors.ErrCodeUnknownCapability, stage.ID, stage.Capability,
			"capability not registered (known: %v)", b.registry.List())
	}

	if len(stage.Predecessors) == 0 {
		if !b.registry.IsCompatible(desc, inputKind) {
			return buildErrf(errors.ErrCodeKindMismatch, stage.ID, stage.Capability,
				"accepts %v but pipeline input is %q", desc.InputKinds, inputKind)
		}
	} else {
		satisfied := false
		candidates := make([]media.Kind, 0, len(stage.Predecessors))
		for _, predID := range stage.Predecessors {
			predDesc, ok := b.registry.Lookup(all[predID].Capability)
			if !ok {
				// Predecessor validation reports its own error.
				continue
			}
			candidates = append(candidates, predDesc.OutputKind)
			if b.registry.IsCompatible(desc, predDesc.OutputKind) {
				satisfied = true
			}
		}
		if !satisfied {
			return buildErrf(errors.ErrCodeKindMismatch, stage.ID, stage.Capability,
				"accepts %v but predecessors emit %v", desc.InputKinds, candidates)
		}
	}

	resolved, err := capability.ResolveOptions(desc, stage.Options)
	if err != nil {
		return buildErrf(errors.ErrCodeInvalidOption, stage.ID, stage.Capability, "%v", err)
	}
	stage.Options = resolved
	return nil
}
