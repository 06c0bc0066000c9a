package sink

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/render"
	"github.com/matzehuels/ecomap/pkg/render/tree"
)

// Format is an export format.
type Format string

// Export formats. FormatDOT emits the hierarchy as Graphviz source and
// FormatTree renders it to SVG.
const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatTree Format = "tree"
)

// Formats lists every export format in display order.
var Formats = []Format{FormatPNG, FormatSVG, FormatPDF, FormatJSON, FormatDOT, FormatTree}

// ParseFormat converts a format name or file extension (".png").
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported export format %q", s)
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	if f == FormatTree {
		return "tree.svg"
	}
	return string(f)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG, FormatTree:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// Options tunes [Export].
type Options struct {
	// Scale is the PNG pixel ratio. Zero means [DefaultScale].
	Scale float64
	// RSVG rasterizes PNG through rsvg-convert instead of natively, which
	// keeps SVG logos.
	RSVG bool
	// NoLogos draws placeholders only.
	NoLogos bool
	// Tree configures the hierarchy formats.
	Tree tree.Options
}

// Export renders the scene in format f. Failures carry
// [errors.ErrCodeExportFailed].
func Export(ctx context.Context, s render.Scene, f Format, opts Options) ([]byte, error) {
	var svgOpts []SVGOption
	if opts.NoLogos {
		svgOpts = append(svgOpts, WithoutLogos())
	}
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}

	var (
		out []byte
		err error
	)
	switch f {
	case FormatSVG:
		out = RenderSVG(s, svgOpts...)
	case FormatPNG:
		if opts.RSVG {
			out, err = render.ToPNG(ctx, RenderSVG(s, svgOpts...), scale)
			break
		}
		pngOpts := []PNGOption{WithScale(scale)}
		if opts.NoLogos {
			pngOpts = append(pngOpts, WithoutPNGLogos())
		}
		out, err = RenderPNG(s, pngOpts...)
	case FormatPDF:
		out, err = RenderPDF(ctx, s, WithPDFSVGOptions(svgOpts...))
	case FormatJSON:
		out, err = RenderJSON(s)
	case FormatDOT:
		out = []byte(tree.ToDOT(s, opts.Tree))
	case FormatTree:
		out, err = tree.RenderSVG(ctx, tree.ToDOT(s, opts.Tree))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported export format %q", string(f))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "export %s", string(f))
	}
	return out, nil
}

// SafeExport is [Export] for interactive callers: a failure is logged and
// yields no artifact instead of an error, leaving the editing state as it was.
func SafeExport(ctx context.Context, logger *log.Logger, s render.Scene, f Format, opts Options) ([]byte, bool) {
	if logger == nil {
		logger = log.Default()
	}
	out, err := Export(ctx, s, f, opts)
	if err != nil {
		logger.Error("export failed", "format", f, "err", err)
		return nil, false
	}
	return out, true
}
