// Package layout computes the geometry of an ecosystem map.
//
// # Overview
//
// The package has three layers that share one [TierTable]:
//
//  1. The estimator ([Estimate], [MaxColumns], [ChooseColumns]) turns a
//     category's subcategory counts and a tile column count into the pixel
//     size needed to show every tile without scrolling.
//  2. [PlaceTiles] produces the header, subcategory label and tile
//     rectangles inside one box. Render sinks draw exactly these rectangles,
//     so the estimate and the drawing cannot drift apart.
//  3. [Engine.Layout] places every category box on a bounded [Canvas]:
//     a fixed breakpoint grid ([GridColumns]), rows as tall as their tallest
//     member, and a documented clamp that keeps boxes inside the canvas.
//
// # Manual edits
//
// The engine merges its output with the current customizations. Positions,
// sizes and column counts the user set directly (the Manual* flags on
// [ecosystem.CategoryCustomization]) are kept; a manually sized box only
// grows when its content changed and no longer fits. [Request.Force]
// discards manual edits and lays everything out from scratch.
//
// # Determinism
//
// All functions are pure. The same categories, in the same order, with the
// same customizations always produce identical positions and dimensions.
//
//	eng := layout.New()
//	res := eng.Layout(layout.Request{Categories: cats})
//	for name, c := range res.Categories {
//	    fmt.Println(name, c.Position, c.Width, c.Height)
//	}
package layout
