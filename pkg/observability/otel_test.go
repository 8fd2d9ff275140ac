package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelHooks_TransformSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	h, err := NewOTelHooks(OTelOptions{Tracer: tp.Tracer("test")})
	require.NoError(t, err)

	ctx := context.Background()
	h.OnTransformStart(ctx, "stdin")
	h.OnTransformComplete(ctx, "stdin", 7, 5*time.Millisecond, nil)
	h.OnTransformComplete(ctx, "posts.json", 0, time.Millisecond, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "twill.transform", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestOTelHooks_Metrics(t *testing.T) {
	h, err := NewOTelHooks(OTelOptions{Meter: metricnoop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)
	assert.NotNil(t, h.transforms)
	assert.NotNil(t, h.requestTime)

	ctx := context.Background()
	h.OnStage(ctx, "normalize", time.Millisecond)
	h.OnCacheHit(ctx, "http")
	h.OnCacheMiss(ctx, "http")
	h.OnCacheSet(ctx, "http", 512)
	h.OnRequest(ctx, "GET", "cms.example.com", "/api/v1/posts")
	h.OnResponse(ctx, "GET", "cms.example.com", "/api/v1/posts", 200, time.Millisecond)
	h.OnError(ctx, "GET", "cms.example.com", "/api/v1/posts", errors.New("reset"))
	h.OnSinkWrite(ctx, "mongo", 3, time.Millisecond, nil)
	h.OnSinkWrite(ctx, "mongo", 0, time.Millisecond, errors.New("unreachable"))
}

func TestOTelHooks_Install(t *testing.T) {
	defer Reset()

	h, err := NewOTelHooks(OTelOptions{})
	require.NoError(t, err)
	h.Install()

	assert.Same(t, h, Pipeline())
	assert.Same(t, h, Cache())
	assert.Same(t, h, HTTP())
	assert.Same(t, h, Sink())
}
