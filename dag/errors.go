package dag

import (
	"fmt"

	"github.com/mediakit/mediakit/errors"
)

// BuildError reports a spec or graph validation failure. It always names
// the offending stage and is surfaced before any stage executes.
type BuildError struct {
	// Code classifies the violation.
	Code errors.ErrorCode
	// Stage is the offending stage's declaration index, or -1 when the
	// spec failed to parse at all.
	Stage int
	// Capability is the offending stage's capability name, if known.
	Capability string
	// Reason describes the violation.
	Reason string
}

func (e *BuildError) Error() string {
	if e.Stage < 0 {
		return fmt.Sprintf("dag: %s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("dag: %s: stage %d (%s): %s", e.Code, e.Stage, e.Capability, e.Reason)
}

func buildErrf(code errors.ErrorCode, stage int, capability, format string, args ...any) *BuildError {
	return &BuildError{
		Code:       code,
		Stage:      stage,
		Capability: capability,
		Reason:     fmt.Sprintf(format, args...),
	}
}
