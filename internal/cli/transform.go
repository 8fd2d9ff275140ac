package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/config"
	"github.com/matzehuels/twill/pkg/pipeline"
)

// transformCommand creates the transform command for local documents.
func (c *CLI) transformCommand() *cobra.Command {
	var (
		pf pipelineFlags
		of outputFlags
	)

	cmd := &cobra.Command{
		Use:   "transform [file|-]",
		Short: "Transform a JSON:API document into linked resources",
		Long: `Transform reads a JSON:API document from a file or stdin and writes the
materialized primary data. Relationships are inlined; a resource that is
already being written higher up the same path is written as {id, type}.`,
		Example: `  twill transform posts.json
  curl -s https://cms.example.com/api/posts?include=author | twill transform -
  twill transform posts.json -f json,svg -o out/posts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := of.validate(); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)

			result, err := c.transformInput(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			return c.writeResult(cmd.Context(), cfg, result, &of, pipeline.FormatJSON)
		},
	}

	pf.register(cmd)
	of.register(cmd, pipeline.FormatJSON)
	return cmd
}

// graphCommand creates the graph command, a transform whose default output
// is the relationship graph as SVG.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		pf pipelineFlags
		of outputFlags
	)

	cmd := &cobra.Command{
		Use:   "graph [file|-]",
		Short: "Draw the relationship graph of a JSON:API document",
		Example: `  twill graph posts.json -o posts.svg
  twill graph posts.json -f dot | dot -Tpng > posts.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := of.validate(); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)

			result, err := c.transformInput(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			return c.writeResult(cmd.Context(), cfg, result, &of, pipeline.FormatSVG)
		},
	}

	pf.register(cmd)
	of.register(cmd, pipeline.FormatSVG)
	return cmd
}

// transformInput reads the document named by args and transforms it.
func (c *CLI) transformInput(ctx context.Context, cfg *config.Config, args []string) (*pipeline.Result, error) {
	source, data, err := c.readInput(args)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(cfg)
	if err != nil {
		return nil, err
	}

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.TransformBytes(ctx, source, data)
	if err != nil {
		return nil, err
	}
	prog.transformed(source, result.Stats)
	return result, nil
}
