package dag

import (
	"sort"

	"github.com/mediakit/mediakit/errors"
)

// buildLevels uses Kahn's algorithm to group stage IDs by dependency
// level. Stages within the same level can execute in parallel. IDs
// within a level are sorted so the scheduler's declaration-order
// tie-break stays deterministic. Returns an error if a cycle is
// detected, which the grammar makes impossible but the check is cheap.
func buildLevels(stages []Stage) ([][]int, error) {
	inDegree := make(map[int]int, len(stages))
	dependents := make(map[int][]int, len(stages))

	for _, s := range stages {
		inDegree[s.ID] = len(s.Predecessors)
		for _, pred := range s.Predecessors {
			dependents[pred] = append(dependents[pred], s.ID)
		}
	}

	var queue []int
	for _, s := range stages {
		if inDegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	var levels [][]int
	visited := 0

	for len(queue) > 0 {
		sort.Ints(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []int
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(stages) {
		return nil, buildErrf(errors.ErrCodeInvalidSpec, -1, "",
			"cycle detected, processed %d of %d stages", visited, len(stages))
	}

	return levels, nil
}
