// Package render turns a laid-out ecosystem map into exportable images.
//
// # Overview
//
// Rendering happens in two steps:
//
//  1. [NewScene] resolves every category box into absolute geometry: box
//     rectangles, the tile rectangles from [layout.PlaceTiles], logo blobs
//     and the chart header. It also sizes the export canvas
//     ([ExportSize]).
//  2. A sink in [sink] draws the scene: SVG through ajstarks/svgo, PNG
//     natively through fogleman/gg, PDF by converting the SVG with
//     rsvg-convert, and JSON as a plain scene dump.
//
// Sinks draw only what the scene contains, so what is exported is exactly
// what the layout engine computed.
//
// # Export size
//
// The content bounding box (the furthest box corner plus a margin, and the
// header band) is grown to the orientation's aspect ratio: 16:9 for
// landscape and 1:√2 for portrait, then clamped to 1280×720 respectively
// 800×1131 and rounded up to whole pixels.
//
// # Format conversion
//
// [ToPDF] and [ToPNG] convert any SVG with the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := sink.RenderSVG(scene)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [sink]: github.com/matzehuels/ecomap/pkg/render/sink
// [layout.PlaceTiles]: github.com/matzehuels/ecomap/pkg/layout.PlaceTiles
package render
