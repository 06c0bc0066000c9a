// Package pipeline runs the import → layout → render flow behind the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Build: read the table (CSV or JSON), map its columns, register logos
//     and lay the map out in a [store.Store]. A previous snapshot can be
//     restored first, so manual edits survive a re-import.
//  2. Render: turn the store into a [render.Scene] and export it in every
//     requested format.
//
// Parsed tables and rendered artifacts are cached by content hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "companies.csv",
//	    LogoDir: "logos",
//	    Formats: []string{"png", "svg"},
//	})
//	png := result.Artifacts["png"]
//
// [store.Store]: github.com/matzehuels/ecomap/pkg/store.Store
// [render.Scene]: github.com/matzehuels/ecomap/pkg/render.Scene
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/cache"
	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/render"
	"github.com/matzehuels/ecomap/pkg/render/sink"
	"github.com/matzehuels/ecomap/pkg/render/tree"
	"github.com/matzehuels/ecomap/pkg/store"
)

// Default values shared by the CLI and the server.
const (
	DefaultFormat = sink.FormatPNG
	DefaultScale  = sink.DefaultScale
)

// Options contains all configuration for one pipeline run.
type Options struct {
	// Build options
	Input     string     `json:"input,omitempty"`      // CSV or JSON file
	InputName string     `json:"input_name,omitempty"` // name used for format detection with Data
	Mapping   io.Mapping `json:"mapping"`              // unset fields: suggested from the header
	LogoDir   string     `json:"logo_dir,omitempty"`
	Snapshot  string     `json:"snapshot,omitempty"` // saved document to restore before importing

	Title              *string `json:"title,omitempty"`
	Subtitle           *string `json:"subtitle,omitempty"`
	Orientation        string  `json:"orientation,omitempty"`
	ShowLogoBackground *bool   `json:"show_logo_background,omitempty"`

	Canvas layout.Canvas `json:"canvas"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	RSVG     bool     `json:"rsvg,omitempty"`
	NoLogos  bool     `json:"no_logos,omitempty"`
	Collapse bool     `json:"collapse,omitempty"` // hierarchy formats: hide lone "Other" groups
	Refresh  bool     `json:"refresh,omitempty"`  // bypass the cache

	// Runtime options (not serialized)
	Data     []byte                        `json:"-"` // raw input instead of reading Input
	Previous *io.Document                  `json:"-"` // in-memory alternative to Snapshot
	Tiers    layout.TierTable              `json:"-"`
	Chart    *ecosystem.ChartCustomization `json:"-"` // chart defaults for new maps
	Logger   *log.Logger                   `json:"-"` // overrides the runner logger
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Store holds the built map. Callers may keep editing it.
	Store *store.Store

	// Scene is the geometry that was rendered.
	Scene render.Scene

	// SceneHash is the content hash used for artifact cache keys.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Skipped lists one message per input row that was dropped.
	Skipped []string

	// Unmatched lists logo files no company uses.
	Unmatched []string

	// Clamped lists boxes that did not fit the canvas.
	Clamped []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Companies  int
	Categories int
	Logos      int
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TableHit  bool // Whether the parsed table came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// SetBuildDefaults fills unset build options.
func (o *Options) SetBuildDefaults() {
	if o.Canvas == (layout.Canvas{}) {
		o.Canvas = layout.DefaultCanvas()
	}
	if o.Tiers == nil {
		o.Tiers = layout.DefaultTiers()
	}
}

// ValidateForBuild checks the input and chart options and applies defaults.
func (o *Options) ValidateForBuild() error {
	o.SetBuildDefaults()
	if o.Input == "" && o.Data == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	if o.Data != nil && o.InputName == "" && o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input name is required with raw data")
	}
	if _, err := ecosystem.ParseOrientation(o.Orientation); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "orientation")
	}
	if err := o.Canvas.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "canvas")
	}
	return nil
}

// SetRenderDefaults fills unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{string(DefaultFormat)}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender checks formats and scale and applies defaults.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	return nil
}

// ValidateFormats checks that all formats are known.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if _, err := sink.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SinkOptions returns the export options for sink.Export.
func (o *Options) SinkOptions() sink.Options {
	return sink.Options{
		Scale:   o.Scale,
		RSVG:    o.RSVG,
		NoLogos: o.NoLogos,
		Tree:    tree.Options{Collapse: o.Collapse},
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Scale:    o.Scale,
		NoLogos:  o.NoLogos,
		RSVG:     o.RSVG,
		Collapse: o.Collapse,
	}
}

// chartUpdate converts the chart flags into a store update.
func (o *Options) chartUpdate() store.ChartUpdate {
	u := store.ChartUpdate{
		Title:              o.Title,
		Subtitle:           o.Subtitle,
		ShowLogoBackground: o.ShowLogoBackground,
	}
	if o.Orientation != "" {
		or := ecosystem.Orientation(o.Orientation)
		u.Orientation = &or
	}
	return u
}
