package capability

import (
	"context"

	"github.com/mediakit/mediakit/media"
)

// Request is the uniform input to a capability invocation.
type Request struct {
	// Input is the payload to process.
	Input media.Payload
	// Options is the stage's resolved configuration.
	Options map[string]string
}

// Response is the uniform output of a capability invocation.
type Response struct {
	// Output is the produced payload.
	Output media.Payload
	// SideEffects lists artifacts written outside the pipeline data flow.
	SideEffects []SideEffect
}

// SideEffect describes an artifact produced alongside the main output,
// such as a file written to disk.
type SideEffect struct {
	Kind        string
	Destination string
}

// Invoker is the execution unit behind a registered capability.
// Implementations must be safe for concurrent use; the engine may invoke
// the same capability from multiple in-flight pipelines.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, req Request) (Response, error)
}

// InvokerFunc configures a function-backed Invoker.
type InvokerFunc struct {
	// InvokerName is the unique capability identifier.
	InvokerName string
	// Fn handles the invocation.
	Fn func(ctx context.Context, req Request) (Response, error)
}

// Func bridges a plain function into an Invoker.
func Func(name string, fn func(ctx context.Context, req Request) (Response, error)) Invoker {
	return &InvokerFunc{InvokerName: name, Fn: fn}
}

func (f *InvokerFunc) Name() string { return f.InvokerName }

func (f *InvokerFunc) Invoke(ctx context.Context, req Request) (Response, error) {
	return f.Fn(ctx, req)
}
