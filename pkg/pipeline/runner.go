package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/normalize"
	"github.com/matzehuels/twill/pkg/observability"
)

// Stage names reported to observability hooks.
const (
	StageDecode      = "decode"
	StageNormalize   = "normalize"
	StageDeserialize = "deserialize"
	StageExtract     = "extract"
)

// Result contains the outputs of a transform run.
type Result struct {
	// Output is the transformed primary data.
	Output deserialize.Output

	// Meta is the top-level meta member of the document.
	Meta map[string]any

	// Links is the top-level links member of the document.
	Links jsonapi.Links

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains transform statistics.
type Stats struct {
	Primary         int // primary resources, duplicates counted
	Resources       int // distinct resources reachable from the primary data
	Included        int // entries in the included member
	NormalizeTime   time.Duration
	DeserializeTime time.Duration
	ExtractTime     time.Duration
}

// Runner runs transforms with logging, hooks and error codes.
//
// The Runner is stateless apart from its options: it doesn't store
// transform results, and multiple goroutines can safely share one Runner.
type Runner struct {
	Options Options
	Logger  *log.Logger
}

// NewRunner creates a runner. Defaults are applied to opts.
// If logger is nil, log.Default() is used.
func NewRunner(opts Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	opts.SetDefaults()
	return &Runner{Options: opts, Logger: logger}
}

// TransformBytes decodes data and transforms the document.
// source names the origin of data in logs and hooks.
func (r *Runner) TransformBytes(ctx context.Context, source string, data []byte) (*Result, error) {
	start := time.Now()
	doc, err := jsonapi.Decode(data)
	observability.Pipeline().OnStage(ctx, StageDecode, time.Since(start))
	if err != nil {
		observability.Pipeline().OnTransformStart(ctx, source)
		observability.Pipeline().OnTransformComplete(ctx, source, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode %s", source)
	}
	return r.Transform(ctx, source, doc)
}

// Transform runs the three stages on doc and reports their timings.
func (r *Runner) Transform(ctx context.Context, source string, doc *jsonapi.Document) (*Result, error) {
	hooks := observability.Pipeline()
	hooks.OnTransformStart(ctx, source)
	start := time.Now()

	result, err := r.transform(ctx, doc)
	if err != nil {
		hooks.OnTransformComplete(ctx, source, 0, time.Since(start), err)
		r.Logger.Debug("transform failed", "source", source, "error", err)
		return nil, classify(err, source)
	}

	hooks.OnTransformComplete(ctx, source, result.Stats.Resources, time.Since(start), nil)
	r.Logger.Debug("transformed document",
		"source", source,
		"primary", result.Stats.Primary,
		"resources", result.Stats.Resources,
		"duration", time.Since(start))
	return result, nil
}

func (r *Runner) transform(ctx context.Context, doc *jsonapi.Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc != nil && !doc.Data.Present && len(doc.Errors) > 0 {
		return nil, apiError(doc.Errors)
	}
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: Normalize
	t := time.Now()
	n, err := normalize.Normalize(doc)
	if err != nil {
		return nil, err
	}
	result.Stats.NormalizeTime = time.Since(t)
	result.Stats.Included = len(doc.Included)
	result.Meta = doc.Meta
	result.Links = doc.Links
	hooks.OnStage(ctx, StageNormalize, result.Stats.NormalizeTime)
	r.Logger.Debug("normalized", "indexed", len(n.Resources), "duration", result.Stats.NormalizeTime)

	// Stage 2: Deserialize
	t = time.Now()
	out, err := deserialize.Deserialize(n, r.Options.DeserializeOptions()...)
	if err != nil {
		return nil, err
	}
	result.Stats.DeserializeTime = time.Since(t)
	hooks.OnStage(ctx, StageDeserialize, result.Stats.DeserializeTime)
	r.Logger.Debug("deserialized", "primary", out.Len(), "duration", result.Stats.DeserializeTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Extract
	t = time.Now()
	out, err = Extract(out, r.Options.Extractor)
	if err != nil {
		return nil, err
	}
	result.Stats.ExtractTime = time.Since(t)
	hooks.OnStage(ctx, StageExtract, result.Stats.ExtractTime)
	r.Logger.Debug("extracted", "duration", result.Stats.ExtractTime)

	result.Output = out
	result.Stats.Primary = out.Len()
	result.Stats.Resources = jsonapi.Count(out.Slice())
	return result, nil
}

// apiError reports an errors document.
func apiError(objs []jsonapi.ErrorObject) error {
	msgs := make([]string, 0, len(objs))
	for _, o := range objs {
		msgs = append(msgs, o.String())
	}
	return errors.New(errors.ErrCodeAPI, "server returned errors: %s", strings.Join(msgs, "; "))
}

// classify attaches an error code to transform failures.
func classify(err error, source string) error {
	var coded *errors.Error
	switch {
	case stderrors.As(err, &coded):
		return err
	case stderrors.Is(err, jsonapi.ErrMalformedDocument):
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "transform %s", source)
	case stderrors.Is(err, deserialize.ErrTooManyResources):
		return errors.Wrap(errors.ErrCodeTooLarge, err, "transform %s", source)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "transform %s", source)
	case stderrors.Is(err, context.Canceled):
		return err
	}
	return errors.Wrap(errors.ErrCodeExtraction, err, "transform %s", source)
}
