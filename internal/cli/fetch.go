package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/client"
	"github.com/matzehuels/twill/pkg/deserialize"
	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/pipeline"
)

// fetchOpts holds the query flags of the fetch command.
type fetchOpts struct {
	include    []string
	fields     []string
	filters    []string
	sort       []string
	pageNumber int
	pageSize   int
	pages      int
	related    string
	noCache    bool
	refresh    bool
}

// fetchCommand creates the fetch command for remote documents.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		opts fetchOpts
		pf   pipelineFlags
		of   outputFlags
	)

	cmd := &cobra.Command{
		Use:   "fetch <resource> [id]",
		Short: "Fetch resources from a JSON:API server and transform them",
		Long: `Fetch requests a collection or a single resource from the API configured
in [api] (or TWILL_URL / TWILL_TOKEN) and writes the transformed result.

Responses are cached; use --refresh to bypass cached responses or
--no-cache to disable the cache entirely.`,
		Example: `  twill fetch articles --include author,tags --sort -created
  twill fetch articles 42 --related comments
  twill fetch people --filter name=Ada --fields people=name,email --pages 3`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := of.validate(); err != nil {
				return err
			}
			if opts.related != "" && len(args) < 2 {
				return errors.New(errors.ErrCodeInvalidInput, "--related requires a resource id")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)
			if cfg.API.URL == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "no API URL: set [api] url in the config file or %s", "TWILL_URL")
			}

			ctx := cmd.Context()
			store, err := openCache(ctx, cfg, opts.noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			cl, err := c.newClient(cfg, store, opts.refresh)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cfg)
			if err != nil {
				return err
			}

			q, err := buildQuery(ctx, cl, args, &opts)
			if err != nil {
				return err
			}

			target := strings.Join(args, "/")
			sp := newSpinner(ctx, "Fetching "+target)
			sp.Start()
			result, err := fetchPages(ctx, cl, q, runner, opts.pages, func(page int) {
				sp.SetMessage(fmt.Sprintf("Fetching %s (page %d of at most %d)", target, page, opts.pages))
			})
			if err != nil {
				sp.StopWithError("Fetch failed: " + target)
				return err
			}
			sp.StopWithSuccess("Fetched " + target)

			printStats(result.Stats)
			return c.writeResult(ctx, cfg, result, &of, pipeline.FormatJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.include, "include", "i", nil, "relationship paths to sideload (comma-separated)")
	cmd.Flags().StringArrayVar(&opts.fields, "fields", nil, "sparse fieldset as type=field1,field2 (repeatable)")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "filter as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.sort, "sort", nil, "sort fields; prefix with - for descending")
	cmd.Flags().IntVar(&opts.pageNumber, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "page size")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "follow next links up to this many pages")
	cmd.Flags().StringVar(&opts.related, "related", "", "fetch the related resources of this relationship instead")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	pf.register(cmd)
	of.register(cmd, pipeline.FormatJSON)

	return cmd
}

// buildQuery turns the arguments and flags into a query.
func buildQuery(ctx context.Context, cl *client.Client, args []string, opts *fetchOpts) (*client.Query, error) {
	var q *client.Query
	if len(args) == 1 {
		q = cl.Find(args[0])
	} else {
		q = cl.FindOne(args[0], args[1])
	}

	if opts.related != "" {
		doc, err := q.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		q = cl.FindRelated(opts.related, doc.Data.One)
		if q == nil {
			return nil, errors.New(errors.ErrCodeNoLink, "%s/%s has no related link for %q", args[0], args[1], opts.related)
		}
	}

	q.Include(opts.include...).Sort(opts.sort...).Page(opts.pageNumber, opts.pageSize)
	for _, f := range opts.fields {
		typ, list, ok := strings.Cut(f, "=")
		if !ok || typ == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --fields %q (want type=field1,field2)", f)
		}
		q.Fields(typ, strings.Split(list, ",")...)
	}
	for _, f := range opts.filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --filter %q (want key=value)", f)
		}
		q.Filter(key, value)
	}
	return q, q.Err()
}

// fetchPages fetches q and up to pages-1 following pages, transforming each
// page and concatenating the primary data. onPage, when set, is called
// before each page after the first.
func fetchPages(ctx context.Context, cl *client.Client, q *client.Query, runner *pipeline.Runner, pages int, onPage func(page int)) (*pipeline.Result, error) {
	if pages < 1 {
		pages = 1
	}

	var (
		combined *pipeline.Result
		items    []jsonapi.Resource
		many     bool
	)
	for page := 1; q != nil && page <= pages; page++ {
		if page > 1 && onPage != nil {
			onPage(page)
		}
		u, err := q.URL()
		if err != nil {
			return nil, err
		}
		doc, err := q.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		result, err := runner.Transform(ctx, u, doc)
		if err != nil {
			return nil, err
		}

		if combined == nil {
			combined = result
		} else {
			addStats(&combined.Stats, result.Stats)
			combined.Links = result.Links
		}
		many = many || result.Output.Many
		items = append(items, result.Output.Slice()...)

		if page < pages {
			q = cl.Next(doc)
		}
	}

	if many {
		combined.Output = deserialize.Output{Many: true, Items: items}
		combined.Stats.Resources = jsonapi.Count(items)
	}
	return combined, nil
}

func addStats(dst *pipeline.Stats, src pipeline.Stats) {
	dst.Primary += src.Primary
	dst.Included += src.Included
	dst.NormalizeTime += src.NormalizeTime
	dst.DeserializeTime += src.DeserializeTime
	dst.ExtractTime += src.ExtractTime
}
