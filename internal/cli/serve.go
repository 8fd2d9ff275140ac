package cli

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matzehuels/twill/internal/server"
	"github.com/matzehuels/twill/pkg/cache"
	"github.com/matzehuels/twill/pkg/observability"
)

// serveCommand creates the serve command, an HTTP transform endpoint.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		pf      pipelineFlags
		addr    string
		noCache bool
		otelOn  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /transform over HTTP",
		Long: `Serve starts an HTTP server that transforms JSON:API documents posted to
/transform. The output format is chosen with ?format=json|dot|svg.
Outputs are cached with the [cache] backend from the config file; the redis
backend lets several instances share one cache.`,
		Example: `  twill serve --addr :8080
  curl -s --data-binary @posts.json 'localhost:8080/transform?format=svg'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			if otelOn {
				hooks, err := observability.NewOTelHooks(observability.OTelOptions{
					Tracer: otel.Tracer(appName),
					Meter:  otel.Meter(appName),
				})
				if err != nil {
					return err
				}
				hooks.Install()
			}

			store, err := openCache(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := c.newRunner(cfg)
			if err != nil {
				return err
			}
			rules, err := json.Marshal(cfg.Rules)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Runner:       runner,
				Cache:        store,
				RulesHash:    cache.Hash(rules),
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Logger:       c.Logger,
			})
			printInfo("Serving on %s", StyleValue.Render(cfg.Server.Addr))
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable output caching")
	cmd.Flags().BoolVar(&otelOn, "otel", false, "report traces and metrics through the global OpenTelemetry providers")

	return cmd
}
