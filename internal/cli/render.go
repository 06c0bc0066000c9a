package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/pipeline"
	"github.com/matzehuels/ecomap/pkg/store"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	formats  string
	scale    float64
	rsvg     bool
	noLogos  bool
	collapse bool
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command for exporting a saved map.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <map.json>",
		Short: "Export a saved map to PNG, SVG, PDF, JSON, DOT or tree",
		Long: `Render exports a map document written by "ecomap build --save", "ecomap edit"
or the HTTP API. Boxes are drawn exactly where the document puts them; nothing
is laid out again.`,
		Example: `  ecomap render map.json -f svg,pdf
  ecomap render map.json -f png --scale 3 -o landscape.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := c.normalizeFormats(opts.formats)
			if err != nil {
				return err
			}
			popts := pipeline.Options{
				Formats:  formats,
				Scale:    c.cfg.Export.Scale,
				RSVG:     opts.rsvg || c.cfg.Export.RSVG,
				NoLogos:  opts.noLogos,
				Collapse: opts.collapse,
				Refresh:  opts.refresh,
			}
			if cmd.Flags().Changed("scale") {
				popts.Scale = opts.scale
			}
			if opts.output == "" {
				opts.output = c.cfg.Export.Output
			}
			return c.runRender(cmd.Context(), args[0], popts, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): png, svg, pdf, json, dot, tree (comma-separated)")
	f.Float64Var(&opts.scale, "scale", 0, "PNG pixel scale (default from config)")
	f.BoolVar(&opts.rsvg, "rsvg", false, "rasterize PNG through rsvg-convert")
	f.BoolVar(&opts.noLogos, "no-logos", false, "draw initials instead of logos")
	f.BoolVar(&opts.collapse, "collapse", false, "hide lone \"Other\" subcategories in tree and dot output")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and recompute")

	return cmd
}

// runRender restores the document at path and exports it.
func (c *CLI) runRender(ctx context.Context, path string, popts pipeline.Options, o *renderOpts) error {
	st, err := c.openMap(path)
	if err != nil {
		return err
	}
	if st.Empty() {
		return errors.New(errors.ErrCodeInvalidInput, "%s contains no companies", path)
	}

	paths, err := outputPaths(o.output, path, popts.Formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result := &pipeline.Result{Store: st}
	if err := runner.Render(ctx, result, popts); err != nil {
		return err
	}
	written, err := writeArtifacts(result.Artifacts, paths, popts.Formats)
	if err != nil || o.output == stdoutPath {
		return err
	}

	c.out.success("Rendered %s", path)
	c.out.stats(len(st.Companies()), len(st.Categories()), st.Logos().Len(), result.CacheInfo.RenderHit)
	for _, p := range written {
		c.out.file(p)
	}
	return nil
}

// openMap restores a saved document into a store configured from the
// loaded config.
func (c *CLI) openMap(path string) (*store.Store, error) {
	doc, err := io.ImportSnapshot(path)
	if err != nil {
		return nil, err
	}
	st := c.newStore()
	st.Restore(doc)
	return st, nil
}
