// Package observability lets twill report what it is doing without depending
// on a telemetry backend.
//
// Libraries emit events through the hook accessors:
//
//	hooks := observability.Pipeline()
//	hooks.OnTransformStart(ctx, source)
//	// normalize, deserialize, extract
//	hooks.OnTransformComplete(ctx, source, resourceCount, duration, err)
//
// Every category defaults to a no-op. An application installs real hooks
// once at startup, before any work is done:
//
//	observability.SetPipelineHooks(myHooks)
//
// or all at once with [Set]. [OTelHooks] implements every category on top of
// OpenTelemetry.
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the transform pipeline.
// source names where the document came from (a file, a URL, "stdin").
type PipelineHooks interface {
	OnTransformStart(ctx context.Context, source string)
	OnTransformComplete(ctx context.Context, source string, resourceCount int, duration time.Duration, err error)

	// OnStage reports the duration of one stage: decode, normalize,
	// deserialize or extract.
	OnStage(ctx context.Context, stage string, duration time.Duration)
}

// CacheHooks receives events from cache backends. keyType is the first
// segment of the cache key ("http", "doc").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the JSON:API client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError reports a request that produced no response at all.
	OnError(ctx context.Context, method, host, path string, err error)
}

// SinkHooks receives events from resource sinks. sink is the sink kind
// ("mongo", "jsonl").
type SinkHooks interface {
	OnSinkWrite(ctx context.Context, sink string, written int, duration time.Duration, err error)
}

// Hooks groups one implementation per category. Nil fields are left
// unchanged by [Set].
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
	Sink     SinkHooks
}

// NoopPipelineHooks discards pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnTransformStart(context.Context, string)                              {}
func (NoopPipelineHooks) OnTransformComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnStage(context.Context, string, time.Duration)                        {}

// NoopCacheHooks discards cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks discards client events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopSinkHooks discards sink events.
type NoopSinkHooks struct{}

func (NoopSinkHooks) OnSinkWrite(context.Context, string, int, time.Duration, error) {}

func noop() Hooks {
	return Hooks{
		Pipeline: NoopPipelineHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
		Sink:     NoopSinkHooks{},
	}
}

var (
	mu     sync.RWMutex
	active = noop()
)

// Set installs every non-nil member of h.
func Set(h Hooks) {
	mu.Lock()
	defer mu.Unlock()
	if h.Pipeline != nil {
		active.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		active.Cache = h.Cache
	}
	if h.HTTP != nil {
		active.HTTP = h.HTTP
	}
	if h.Sink != nil {
		active.Sink = h.Sink
	}
}

// SetPipelineHooks installs pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) { Set(Hooks{Pipeline: h}) }

// SetCacheHooks installs cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { Set(Hooks{Cache: h}) }

// SetHTTPHooks installs client hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { Set(Hooks{HTTP: h}) }

// SetSinkHooks installs sink hooks. A nil h is ignored.
func SetSinkHooks(h SinkHooks) { Set(Hooks{Sink: h}) }

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return active.Pipeline
}

// Cache returns the installed cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return active.Cache
}

// HTTP returns the installed client hooks.
func HTTP() HTTPHooks {
	mu.RLock()
	defer mu.RUnlock()
	return active.HTTP
}

// Sink returns the installed sink hooks.
func Sink() SinkHooks {
	mu.RLock()
	defer mu.RUnlock()
	return active.Sink
}

// Reset restores the no-op hooks. Tests call it after installing their own.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	active = noop()
}
