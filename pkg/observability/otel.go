package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelOptions configures [NewOTelHooks]. Either field may be nil.
type OTelOptions struct {
	Tracer trace.Tracer
	Meter  metric.Meter
}

// OTelHooks implements every hook category on top of OpenTelemetry. Transforms and stages become spans (or span events when a
// span is already active); counts and durations become metrics.
type OTelHooks struct {
	tracer trace.Tracer

	transforms    metric.Int64Counter
	transformTime metric.Float64Histogram
	resources     metric.Int64Histogram
	stageTime     metric.Float64Histogram
	cacheOps      metric.Int64Counter
	cacheBytes    metric.Int64Counter
	requests      metric.Int64Counter
	requestTime   metric.Float64Histogram
	sinkWrites    metric.Int64Counter
}

// NewOTelHooks creates the metric instruments and returns the hooks.
func NewOTelHooks(opts OTelOptions) (*OTelHooks, error) {
	h := &OTelHooks{tracer: opts.Tracer}
	if opts.Meter == nil {
		return h, nil
	}
	m := opts.Meter
	var err error

	if h.transforms, err = m.Int64Counter("twill.transform.count",
		metric.WithDescription("Number of documents transformed"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create transform counter: %w", err)
	}
	if h.transformTime, err = m.Float64Histogram("twill.transform.duration",
		metric.WithDescription("Transform duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create transform histogram: %w", err)
	}
	if h.resources, err = m.Int64Histogram("twill.transform.resources",
		metric.WithDescription("Resources materialized per document"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create resources histogram: %w", err)
	}
	if h.stageTime, err = m.Float64Histogram("twill.stage.duration",
		metric.WithDescription("Pipeline stage duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create stage histogram: %w", err)
	}
	if h.cacheOps, err = m.Int64Counter("twill.cache.operations",
		metric.WithDescription("Cache lookups and writes"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create cache counter: %w", err)
	}
	if h.cacheBytes, err = m.Int64Counter("twill.cache.bytes_written",
		metric.WithDescription("Bytes written to the cache"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("create cache bytes counter: %w", err)
	}
	if h.requests, err = m.Int64Counter("twill.http.requests",
		metric.WithDescription("Outgoing API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	if h.requestTime, err = m.Float64Histogram("twill.http.duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create request histogram: %w", err)
	}
	if h.sinkWrites, err = m.Int64Counter("twill.sink.resources",
		metric.WithDescription("Resources written to sinks"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create sink counter: %w", err)
	}
	return h, nil
}

// Install registers h for every hook category.
func (h *OTelHooks) Install() {
	Set(Hooks{Pipeline: h, Cache: h, HTTP: h, Sink: h})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func (h *OTelHooks) OnTransformStart(ctx context.Context, source string) {
	trace.SpanFromContext(ctx).AddEvent("transform.start",
		trace.WithAttributes(attribute.String("source", source)))
}

func (h *OTelHooks) OnTransformComplete(ctx context.Context, source string, resourceCount int, duration time.Duration, err error) {
	if h.tracer != nil {
		_, span := h.tracer.Start(ctx, "twill.transform",
			trace.WithTimestamp(time.Now().Add(-duration)))
		span.SetAttributes(
			attribute.String("source", source),
			attribute.Int("resources", resourceCount),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	opts := metric.WithAttributes(attribute.String("status", status))
	if h.transforms != nil {
		h.transforms.Add(ctx, 1, opts)
	}
	if h.transformTime != nil {
		h.transformTime.Record(ctx, ms(duration), opts)
	}
	if h.resources != nil && err == nil {
		h.resources.Record(ctx, int64(resourceCount))
	}
}

func (h *OTelHooks) OnStage(ctx context.Context, stage string, duration time.Duration) {
	trace.SpanFromContext(ctx).AddEvent("stage."+stage,
		trace.WithAttributes(attribute.Float64("duration_ms", ms(duration))))
	if h.stageTime != nil {
		h.stageTime.Record(ctx, ms(duration), metric.WithAttributes(attribute.String("stage", stage)))
	}
}

func (h *OTelHooks) cacheOp(ctx context.Context, keyType, op string) {
	if h.cacheOps != nil {
		h.cacheOps.Add(ctx, 1, metric.WithAttributes(
			attribute.String("key_type", keyType),
			attribute.String("op", op),
		))
	}
}

func (h *OTelHooks) OnCacheHit(ctx context.Context, keyType string)  { h.cacheOp(ctx, keyType, "hit") }
func (h *OTelHooks) OnCacheMiss(ctx context.Context, keyType string) { h.cacheOp(ctx, keyType, "miss") }

func (h *OTelHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.cacheOp(ctx, keyType, "set")
	if h.cacheBytes != nil {
		h.cacheBytes.Add(ctx, int64(size), metric.WithAttributes(attribute.String("key_type", keyType)))
	}
}

func (h *OTelHooks) OnRequest(ctx context.Context, method, host, path string) {
	trace.SpanFromContext(ctx).AddEvent("http.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.host", host),
		attribute.String("http.path", path),
	))
}

func (h *OTelHooks) OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration) {
	opts := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.host", host),
		attribute.Int("http.status_code", statusCode),
	)
	if h.requests != nil {
		h.requests.Add(ctx, 1, opts)
	}
	if h.requestTime != nil {
		h.requestTime.Record(ctx, ms(duration), opts)
	}
}

func (h *OTelHooks) OnError(ctx context.Context, method, host, path string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.host", host),
		attribute.String("http.path", path),
	))
	if h.requests != nil {
		h.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.host", host),
			attribute.Int("http.status_code", 0),
		))
	}
}

func (h *OTelHooks) OnSinkWrite(ctx context.Context, sink string, written int, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("sink.write", trace.WithAttributes(
		attribute.String("sink", sink),
		attribute.Int("written", written),
		attribute.Float64("duration_ms", ms(duration)),
	))
	if err != nil {
		span.RecordError(err)
	}
	if h.sinkWrites != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		h.sinkWrites.Add(ctx, int64(written), metric.WithAttributes(
			attribute.String("sink", sink),
			attribute.String("status", status),
		))
	}
}

var (
	_ SinkHooks     = (*OTelHooks)(nil)
	_ PipelineHooks = (*OTelHooks)(nil)
	_ CacheHooks    = (*OTelHooks)(nil)
	_ HTTPHooks     = (*OTelHooks)(nil)
)
