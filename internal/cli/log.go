// Package cli implements the twill command-line interface.
//
// The commands read JSON:API documents from files, stdin or a live API,
// run them through the transform pipeline, and write JSON, Graphviz DOT or
// SVG. The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
//   - transform: Transform a local document
//   - fetch: Query a JSON:API server and transform the response
//   - graph: Draw the relationship graph of a document
//   - browse: Explore a transformed document in the terminal
//   - serve: Expose the pipeline as an HTTP endpoint
//   - cache: Manage the response and output cache
//
// # Logging
//
// Loggers are passed through context.Context so that helpers deep in a
// command can report progress. Status lines go to stderr; stdout carries
// data only.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/twill/pkg/pipeline"
)

// newLogger returns a logger writing to w at level, with "15:04:05.00"
// timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress measures one operation and logs its completion.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded to
// the millisecond.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

// transformed logs a finished transform: counts at info level, stage
// timings at debug level.
func (p *progress) transformed(source string, s pipeline.Stats) {
	p.done("transformed", "source", source, "primary", s.Primary, "resources", s.Resources)
	p.logger.Debug("stages",
		"normalize", s.NormalizeTime,
		"deserialize", s.DeserializeTime,
		"extract", s.ExtractTime)
}

type ctxKey struct{}

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
