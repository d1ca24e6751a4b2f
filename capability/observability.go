package capability

import (
	"context"
	"time"

	"github.com/mediakit/mediakit/logger"
	"github.com/mediakit/mediakit/observability"
)

// WithTracing wraps an Invoker with OpenTelemetry span creation.
// Each invocation creates a span named "{prefix}.{capabilityName}".
func WithTracing(inv Invoker, prefix string) Invoker {
	return &tracingInvoker{inner: inv, prefix: prefix}
}

type tracingInvoker struct {
	inner  Invoker
	prefix string
}

func (i *tracingInvoker) Name() string { return i.inner.Name() }

func (i *tracingInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	spanName := i.prefix + "." + i.inner.Name()
	ctx, span := observability.StartSpan(ctx, spanName)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrCapability, i.inner.Name())

	resp, err := i.inner.Invoke(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}

	return resp, err
}

// WithMetrics wraps an Invoker with metric recording.
// Records invocation count, duration, and errors.
func WithMetrics(inv Invoker, metrics *observability.Metrics) Invoker {
	return &metricsInvoker{inner: inv, metrics: metrics}
}

type metricsInvoker struct {
	inner   Invoker
	metrics *observability.Metrics
}

func (i *metricsInvoker) Name() string { return i.inner.Name() }

func (i *metricsInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	i.metrics.RecordStageStart(ctx)
	start := time.Now()
	resp, err := i.inner.Invoke(ctx, req)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		i.metrics.RecordError(ctx, string(KindOf(err)), i.inner.Name())
	}
	i.metrics.RecordStage(ctx, i.inner.Name(), status, duration)

	return resp, err
}

// WithLogging wraps an Invoker with execution logging.
// Logs: capability name, duration, and success/error status.
func WithLogging(inv Invoker, log *logger.Logger) Invoker {
	return &loggingInvoker{inner: inv, log: log}
}

type loggingInvoker struct {
	inner Invoker
	log   *logger.Logger
}

func (i *loggingInvoker) Name() string { return i.inner.Name() }

func (i *loggingInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := i.inner.Invoke(ctx, req)
	duration := time.Since(start)

	fields := map[string]interface{}{
		logger.FieldCapability: i.inner.Name(),
		logger.FieldDuration:   duration.Milliseconds(),
	}

	if err != nil {
		fields[logger.FieldError] = err.Error()
		i.log.Error("capability invocation failed", fields)
	} else {
		i.log.Debug("capability invocation completed", fields)
	}

	return resp, err
}
