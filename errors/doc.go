// Package errors provides the unified error core for the pipeline engine.
// It implements a structured error type with machine-readable codes and
// retryable classification; the build, capability, cache and scheduler
// error taxonomies are typed wrappers over it.
package errors
