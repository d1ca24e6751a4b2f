package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Build-time errors. Always surfaced before any stage executes.
const (
	// ErrCodeUnknownCapability indicates a spec references an unregistered capability.
	ErrCodeUnknownCapability ErrorCode = "UNKNOWN_CAPABILITY"
	// ErrCodeKindMismatch indicates a stage's input kind cannot be satisfied.
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"
	// ErrCodeInvalidSpec indicates the pipeline spec text is malformed.
	ErrCodeInvalidSpec ErrorCode = "INVALID_SPEC"
	// ErrCodeInvalidOption indicates a stage option failed schema resolution.
	ErrCodeInvalidOption ErrorCode = "INVALID_OPTION"
)

// Capability errors, raised by capability modules and never swallowed.
const (
	// ErrCodeInputRejected indicates a capability rejected its input.
	ErrCodeInputRejected ErrorCode = "INPUT_REJECTED"
	// ErrCodeResourceUnavailable indicates a capability's backing resource is down.
	ErrCodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	// ErrCodeInternalFailure indicates a capability failed internally.
	ErrCodeInternalFailure ErrorCode = "INTERNAL_FAILURE"
)

// Scheduler errors.
const (
	// ErrCodeTimeout indicates a stage exceeded its advisory timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCancelled indicates the pipeline was cancelled before dispatch.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeWorkerPoolExhausted indicates no worker slot became available.
	ErrCodeWorkerPoolExhausted ErrorCode = "WORKER_POOL_EXHAUSTED"
)

// Cache errors.
const (
	// ErrCodeComputeFailed indicates the cache compute function failed.
	ErrCodeComputeFailed ErrorCode = "COMPUTE_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeResourceUnavailable: true,
	ErrCodeTimeout:             true,
	ErrCodeWorkerPoolExhausted: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// The engine itself never retries; this classification is for callers.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
