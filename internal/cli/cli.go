package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/buildinfo"
	"github.com/matzehuels/twill/pkg/cache"
	"github.com/matzehuels/twill/pkg/client"
	"github.com/matzehuels/twill/pkg/config"
	"github.com/matzehuels/twill/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "twill"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
	// stdin and stdout default to os.Stdin and os.Stdout.
	stdin  io.Reader
	stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Twill turns JSON:API documents into linked object graphs",
		Long: `Twill resolves JSON:API documents into plain resources: attributes are
flattened, relationships point at the resources they name, and shared
resources are shared instances. Outputs are JSON, Graphviz DOT or SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (TOML or YAML); default: ./twill.toml, then the user config dir")

	root.AddCommand(c.transformCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig resolves the configuration for this invocation.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Pipeline.Logger == nil {
		cfg.Pipeline.Logger = c.Logger
	}
	return cfg, nil
}

// newRunner creates a pipeline runner with the configured extraction rules.
func (c *CLI) newRunner(cfg *config.Config) (*pipeline.Runner, error) {
	x, err := cfg.Extractor()
	if err != nil {
		return nil, err
	}
	opts := cfg.Pipeline
	opts.Extractor = x
	return pipeline.NewRunner(opts, c.Logger), nil
}

// openCache opens the configured cache, or a null cache when disabled.
func openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, cfg.Cache)
}

// newClient creates an API client from the configuration.
func (c *CLI) newClient(cfg *config.Config, store cache.Cache, refresh bool) (*client.Client, error) {
	opts := client.Options{
		URL:       cfg.API.URL,
		Token:     cfg.API.Token,
		Prefix:    cfg.API.Prefix,
		Version:   cfg.API.Version,
		UserAgent: buildinfo.UserAgent(),
		Cache:     store,
		Refresh:   refresh,
		Attempts:  cfg.API.Attempts,
		Logger:    c.Logger,
	}
	if cfg.API.Timeout > 0 {
		opts.SetDefaults()
		opts.HTTPClient.Timeout = cfg.API.Timeout
	}
	return client.New(opts)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
