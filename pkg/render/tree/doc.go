// Package tree renders an ecosystem map as a hierarchy diagram.
//
// Where the map shows categories as boxes, the tree shows the same data as
// a Graphviz graph: the chart title at the root, one node per category
// (colored like its box), one per subcategory and one leaf per company.
//
//	dot := tree.ToDOT(scene, tree.Options{Collapse: true})
//	svg, err := tree.RenderSVG(ctx, dot)
//
// Rendering runs in-process through [github.com/goccy/go-graphviz]. PDF
// conversion requires librsvg (rsvg-convert).
package tree
