// Package sink draws a [render.Scene] in a concrete output format.
//
// # Formats
//
//   - [RenderSVG]: standalone SVG through ajstarks/svgo. Logos are embedded
//     as data URIs, each category is clipped to its rounded box.
//   - [RenderPNG]: native rasterizer on fogleman/gg with the Go fonts. No
//     external tools are needed; SVG logos fall back to placeholders.
//   - [RenderPDF]: the SVG output converted by rsvg-convert.
//   - [RenderJSON]: the scene geometry for other tools.
//
// The hierarchy formats (DOT source and its Graphviz SVG) come from
// package [tree] and are reachable through [Export].
//
// # Dispatch
//
// [Export] selects a renderer by [Format] and wraps failures with
// EXPORT_FAILED. [SafeExport] logs the failure and reports false, so
// an interactive session keeps going after a failed download:
//
//	data, ok := sink.SafeExport(ctx, logger, scene, sink.FormatPNG, sink.Options{})
//	if !ok {
//		return
//	}
//
// [render.Scene]: github.com/matzehuels/ecomap/pkg/render.Scene
// [tree]: github.com/matzehuels/ecomap/pkg/render/tree
package sink
