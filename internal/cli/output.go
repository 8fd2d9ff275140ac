package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/config"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/pipeline"
	"github.com/matzehuels/twill/pkg/sink"
)

// Store targets accepted by --store.
const (
	storeMongo = "mongo"
	storeJSONL = "jsonl"
)

// pipelineFlags override the [pipeline] section of the config file.
type pipelineFlags struct {
	maxResources      int
	relationshipLinks bool
	resourceLinks     bool
	noRules           bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxResources, "max-resources", pipeline.DefaultMaxResources, "maximum resources materialized per document (0 or less: unbounded)")
	cmd.Flags().BoolVar(&f.relationshipLinks, "relationship-links", false, "keep relationship links as <name>Links fields")
	cmd.Flags().BoolVar(&f.resourceLinks, "resource-links", false, "keep resource-level links and meta")
	cmd.Flags().BoolVar(&f.noRules, "no-rules", false, "skip the extraction rules from the config file")
}

// apply copies explicitly set flags onto cfg.
func (f *pipelineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-resources") {
		cfg.Pipeline.MaxResources = f.maxResources
		if f.maxResources == 0 {
			cfg.Pipeline.MaxResources = -1
		}
	}
	if flags.Changed("relationship-links") {
		cfg.Pipeline.RelationshipLinks = f.relationshipLinks
	}
	if flags.Changed("resource-links") {
		cfg.Pipeline.ResourceLinks = f.resourceLinks
	}
	if f.noRules {
		cfg.Rules = nil
	}
}

// outputFlags control how results are written.
type outputFlags struct {
	output   string
	formats  string
	indent   bool
	maxDepth int
	detailed bool
	store    string
}

func (f *outputFlags) register(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple formats); default: stdout")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", fmt.Sprintf("output format(s): json, dot, svg (comma-separated, default %s)", defaultFormat))
	cmd.Flags().BoolVar(&f.indent, "indent", true, "pretty-print JSON output")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "relationship levels expanded in JSON output (0: unlimited)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show attributes in graph nodes")
	cmd.Flags().StringVar(&f.store, "store", "", "also store resources: mongo (config [mongo] section) or jsonl (to <output>.jsonl or stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("store", completeStores)
}

func (f *outputFlags) validate() error {
	switch f.store {
	case "", storeMongo, storeJSONL:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid store: %q (must be mongo or jsonl)", f.store)
	}
	if f.maxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max-depth must not be negative")
	}
	return nil
}

func (f *outputFlags) renderOptions() pipeline.RenderOptions {
	return pipeline.RenderOptions{Indent: f.indent, MaxDepth: f.maxDepth, Detailed: f.detailed}
}

// writeResult renders result in every requested format and stores it when
// --store is set. With no --output, a single format goes to stdout.
func (c *CLI) writeResult(ctx context.Context, cfg *config.Config, result *pipeline.Result, f *outputFlags, defaultFormat string) error {
	formats := parseFormats(f.formats, defaultFormat)
	for _, format := range formats {
		if err := pipeline.ValidateFormat(format); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "format")
		}
	}
	if f.output == "" && len(formats) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--output is required with multiple formats")
	}

	artifacts, err := pipeline.RenderAll(ctx, result.Output, formats, f.renderOptions())
	if err != nil {
		return err
	}

	if f.output == "" {
		if _, err := c.out().Write(artifacts[formats[0]]); err != nil {
			return err
		}
	} else {
		for _, format := range formats {
			path := outputPath(f.output, format, len(formats) > 1)
			if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
		}
	}

	if f.store != "" {
		return c.store(ctx, cfg, result, f)
	}
	return nil
}

// outputPath returns the file for one format. With multiple formats, the
// output flag is a base path: a known extension is replaced by the format.
func outputPath(output, format string, multi bool) string {
	if !multi {
		return output
	}
	ext := filepath.Ext(output)
	if name := strings.TrimPrefix(ext, "."); pipeline.ValidFormats[name] || name == storeJSONL {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}

func (c *CLI) store(ctx context.Context, cfg *config.Config, result *pipeline.Result, f *outputFlags) error {
	var (
		s   sink.Sink
		err error
	)
	switch f.store {
	case storeMongo:
		s, err = sink.NewMongoSink(ctx, cfg.Mongo, c.Logger)
		if err != nil {
			return err
		}
	case storeJSONL:
		var w io.Writer = c.out()
		if f.output != "" {
			file, err := os.Create(outputPath(f.output, "jsonl", true))
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		s = sink.NewLinesSink(w)
	}
	defer s.Close(ctx)

	n, err := s.Write(ctx, result.Output.Slice())
	if err != nil {
		return fmt.Errorf("store resources: %w", err)
	}
	loggerFromContext(ctx).Info("stored resources", "store", f.store, "count", n)
	return nil
}

// readInput reads a document from a file, or from stdin for "-" or no arg.
func (c *CLI) readInput(args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(c.in())
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", args[0])
		}
		return "", nil, err
	}
	return args[0], data, nil
}

func (c *CLI) in() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}
