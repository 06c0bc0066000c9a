package cli

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/pipeline"
	"github.com/matzehuels/ecomap/pkg/render/sink"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	output  string
	formats string
	logoDir string
	mapping io.Mapping

	title          string
	subtitle       string
	orientation    string
	logoBackground bool

	scale    float64
	rsvg     bool
	noLogos  bool
	collapse bool

	snapshot string // restore manual edits from this document first
	save     string // write the built map as a document
	noCache  bool
	refresh  bool
	watch    bool
}

// buildCommand creates the build command: import a table, lay it out and
// export it.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build an ecosystem map from a CSV or JSON file",
		Long: `Build reads a CSV or JSON list of companies, groups them by category and
subcategory, lays the boxes out and writes the requested formats.

Columns are taken from the --name/--category/--subcategory/--logo-column flags,
then from the [mapping] table of the config file, then guessed from the header.

With --snapshot the previous document is restored first, so boxes you moved or
resized keep their geometry. --watch rebuilds whenever the input or the logo
directory changes.`,
		Example: `  ecomap build companies.csv --logos logos/ -f png,svg
  ecomap build companies.csv --title "Fintech Landscape" --save map.json
  ecomap build companies.csv --snapshot map.json --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.buildPipelineOptions(cmd, args[0], &opts)
			if err != nil {
				return err
			}
			return c.runBuild(cmd.Context(), popts, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): png, svg, pdf, json, dot, tree (comma-separated)")
	f.StringVar(&opts.logoDir, "logos", "", "directory of logo images matched by file name")
	f.StringVar(&opts.mapping.CompanyName, "name", "", "company name column")
	f.StringVar(&opts.mapping.Category, "category", "", "category column")
	f.StringVar(&opts.mapping.Subcategory, "subcategory", "", "subcategory column")
	f.StringVar(&opts.mapping.LogoFilename, "logo-column", "", "logo file name column")
	f.StringVar(&opts.title, "title", "", "chart title")
	f.StringVar(&opts.subtitle, "subtitle", "", "chart subtitle")
	f.StringVar(&opts.orientation, "orientation", "", "landscape or portrait")
	f.BoolVar(&opts.logoBackground, "logo-background", true, "draw a white tile behind logos")
	f.Float64Var(&opts.scale, "scale", 0, "PNG pixel scale (default from config)")
	f.BoolVar(&opts.rsvg, "rsvg", false, "rasterize PNG through rsvg-convert")
	f.BoolVar(&opts.noLogos, "no-logos", false, "draw initials instead of logos")
	f.BoolVar(&opts.collapse, "collapse", false, "hide lone \"Other\" subcategories in tree and dot output")
	f.StringVar(&opts.snapshot, "snapshot", "", "restore a saved map before importing")
	f.StringVar(&opts.save, "save", "", "save the built map as a JSON document")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the table and artifact cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached entries and recompute")
	f.BoolVarP(&opts.watch, "watch", "w", false, "rebuild when the input or logos change")

	return cmd
}

// buildPipelineOptions merges flags and config into pipeline options.
// Chart flags apply only when set explicitly.
func (c *CLI) buildPipelineOptions(cmd *cobra.Command, input string, o *buildOpts) (pipeline.Options, error) {
	formats, err := c.normalizeFormats(o.formats)
	if err != nil {
		return pipeline.Options{}, err
	}
	chart := c.cfg.ChartDefaults()
	popts := pipeline.Options{
		Input:    input,
		Mapping:  o.mapping.Or(c.cfg.Mapping),
		LogoDir:  o.logoDir,
		Snapshot: o.snapshot,
		Canvas:   c.cfg.Canvas,
		Tiers:    c.cfg.TierTable(),
		Chart:    &chart,
		Formats:  formats,
		Scale:    c.cfg.Export.Scale,
		RSVG:     o.rsvg || c.cfg.Export.RSVG,
		NoLogos:  o.noLogos,
		Collapse: o.collapse,
		Refresh:  o.refresh,
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		popts.Title = &o.title
	}
	if flags.Changed("subtitle") {
		popts.Subtitle = &o.subtitle
	}
	if flags.Changed("orientation") {
		popts.Orientation = o.orientation
	}
	if flags.Changed("logo-background") {
		popts.ShowLogoBackground = &o.logoBackground
	}
	if flags.Changed("scale") {
		popts.Scale = o.scale
	}
	if o.output == "" {
		o.output = c.cfg.Export.Output
	}
	return popts, nil
}

// normalizeFormats parses the --format flag, falling back to [export]
// formats, and returns canonical format names.
func (c *CLI) normalizeFormats(s string) ([]string, error) {
	var out []string
	for _, name := range c.parseFormats(s) {
		f, err := sink.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		out = append(out, string(f))
	}
	return out, nil
}

// runBuild builds once, then keeps rebuilding under --watch.
func (c *CLI) runBuild(ctx context.Context, popts pipeline.Options, o *buildOpts) error {
	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := c.buildOnce(ctx, runner, popts, o)
	if err != nil || !o.watch {
		return err
	}
	return c.watchBuild(ctx, runner, popts, o, result)
}

// buildOnce runs the pipeline, writes its artifacts and prints a summary.
func (c *CLI) buildOnce(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, o *buildOpts) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	tm := startTimer(logger)
	paths, err := outputPaths(o.output, popts.Input, popts.Formats)
	if err != nil {
		return nil, err
	}

	var sp *Spinner
	if logger.GetLevel() > log.DebugLevel {
		sp = newSpinner(ctx, os.Stderr, "Building "+popts.Input)
		sp.Start()
	}
	result, err := runner.Execute(ctx, popts)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return nil, err
	}
	tm.mark("pipeline")

	written, err := writeArtifacts(result.Artifacts, paths, popts.Formats)
	if err != nil {
		return nil, err
	}
	tm.mark("write")
	if o.save != "" {
		if err := io.ExportSnapshot(result.Store.Snapshot(), o.save); err != nil {
			return nil, err
		}
		written = append(written, o.save)
	}
	if o.output == stdoutPath {
		return result, nil
	}

	c.out.buildSummary(result, written)
	if o.save != "" && !o.watch {
		c.out.blank()
		c.out.next("Edit the map", "ecomap edit "+o.save)
	}
	return result, nil
}

func (p *printer) buildSummary(result *pipeline.Result, written []string) {
	title := result.Store.Chart().Title
	if title == "" {
		title = "ecosystem map"
	}
	p.success("Built %s", title)
	p.stats(result.Stats.Companies, result.Stats.Categories, result.Stats.Logos, result.CacheInfo.RenderHit)
	for _, path := range written {
		if path != stdoutPath {
			p.file(path)
		}
	}
	if n := len(result.Skipped); n > 0 {
		p.warn("Skipped %d rows", n)
		for _, msg := range result.Skipped {
			p.detail("%s", msg)
		}
	}
	if len(result.Unmatched) > 0 {
		p.warn("Unused logos: %s", strings.Join(result.Unmatched, ", "))
	}
	for _, name := range result.Clamped {
		p.warn("%s does not fit the canvas", name)
	}
	for _, name := range result.Scene.Clipped() {
		if !slices.Contains(result.Clamped, name) {
			p.warn("%s is too small for its companies", name)
		}
	}
}
