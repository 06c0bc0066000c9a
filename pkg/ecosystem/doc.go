// Package ecosystem defines the data model of an ecosystem map.
//
// # Overview
//
// An ecosystem map is a set of [Category] boxes. Each category holds its
// companies grouped into [Subcategory] buckets, and each box carries a
// [CategoryCustomization] that owns its colors, size tier, position and
// dimensions. The chart-wide [ChartCustomization] keys those customizations
// by category name and survives regrouping, so manual edits are not lost
// when the company set is recomputed.
//
// # Grouping
//
// [Group] converts a flat list of validated companies into ordered
// categories:
//
//	cats := ecosystem.Group(companies)
//	for _, c := range cats {
//	    fmt.Println(c.Name, len(c.Companies))
//	}
//
// Categories and subcategories are ordered by name; companies inside a
// subcategory are ordered case-insensitively with a locale-aware collator.
// Equal names keep their input order, so grouping is deterministic.
//
// # Colors
//
// [ColorFromString] derives a stable color from a category name and
// [ContrastColor] picks readable text on top of it.
package ecosystem
