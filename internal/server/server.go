// Package server exposes the transform pipeline over HTTP.
//
// Routes:
//
//	POST /transform   body: a JSON:API document
//	                  query: format=json|dot|svg, indent=true, max_depth=N,
//	                         detailed=true
//	GET  /healthz
//
// Responses of /transform are cached by the hash of the request body and the
// options that shape the output. Failures are reported as a JSON:API errors
// document.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/matzehuels/twill/pkg/cache"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/pipeline"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner

	// Cache stores rendered outputs. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	// RulesHash identifies the extraction rules in cache keys.
	RulesHash string

	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server serves transform requests.
type Server struct {
	opts Options
}

// New creates a server. Defaults are applied to opts.
func New(opts Options) *Server {
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(pipeline.Options{}, opts.Logger)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.TTLDocument
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{opts: opts}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/transform", s.handleTransform)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.opts.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "format"))
		return
	}
	ropts, err := renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		code := errors.ErrCodeInvalidInput
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			code = errors.ErrCodeTooLarge
		}
		s.writeError(w, r, errors.Wrap(code, err, "read request body"))
		return
	}

	popts := s.opts.Runner.Options
	key := s.opts.Keyer.DocumentKey(cache.Hash(body), cache.DocumentKeyOpts{
		Format:            fmt.Sprintf("%s:%t:%d:%t", format, ropts.Indent, ropts.MaxDepth, ropts.Detailed),
		MaxResources:      popts.MaxResources,
		RelationshipLinks: popts.RelationshipLinks,
		ResourceLinks:     popts.ResourceLinks,
		Rules:             []string{s.opts.RulesHash},
	})

	if data, ok, err := s.opts.Cache.Get(ctx, key); err == nil && ok {
		s.write(w, format, "hit", data)
		return
	}

	result, err := s.opts.Runner.TransformBytes(ctx, "request:"+middleware.GetReqID(ctx), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := pipeline.Render(ctx, result.Output, format, ropts)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format))
		return
	}

	if err := s.opts.Cache.Set(ctx, key, data, s.opts.TTL); err != nil {
		s.opts.Logger.Warn("cache write failed", "error", err)
	}
	s.write(w, format, "miss", data)
}

func (s *Server) write(w http.ResponseWriter, format, cacheStatus string, data []byte) {
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set(CacheHeader, cacheStatus)
	_, _ = w.Write(data)
}

func renderOptions(r *http.Request) (pipeline.RenderOptions, error) {
	q := r.URL.Query()
	var opts pipeline.RenderOptions
	if v := q.Get("indent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "indent: %q is not a boolean", v)
		}
		opts.Indent = b
	}
	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_depth: %q is not a non-negative integer", v)
		}
		opts.MaxDepth = n
	}
	opts.Detailed = q.Get("detailed") == "true"
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	body, _ := json.Marshal(map[string]any{
		"errors": []jsonapi.ErrorObject{{
			ID:     middleware.GetReqID(r.Context()),
			Status: strconv.Itoa(status),
			Code:   string(code),
			Title:  http.StatusText(status),
			Detail: errors.UserMessage(err),
		}},
	})
	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
