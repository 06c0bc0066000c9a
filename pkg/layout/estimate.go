package layout

import (
	"math"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
)

// Dimensions is a width and height in pixels.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle relative to its parent box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Bottom returns the lower edge of r.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Estimate returns the size a category needs at the given tile column count.
//
//	height = categoryHeader
//	       + Σ (subcategoryHeader + rows*tileHeight + gap*(rows-1))
//	       + subcategorySpacing*(subcategories-1)
//	       + 2*padding
//	width  = columns*tileWidth + gap*(columns-1) + 2*padding
//
// Columns below 1 count as 1.
func Estimate(cat ecosystem.Category, columns int, tier Tier) Dimensions {
	return EstimateCounts(cat.Counts(), columns, tier)
}

// EstimateCounts is [Estimate] over raw per-subcategory company counts.
func EstimateCounts(counts []int, columns int, tier Tier) Dimensions {
	columns = max(columns, 1)
	h := tier.CategoryHeader + 2*tier.Padding
	for i, n := range counts {
		if i > 0 {
			h += tier.SubcategorySpacing
		}
		h += tier.SubcategoryHeader + rowsHeight(rowsFor(n, columns), tier)
	}
	return Dimensions{Width: widthFor(columns, tier), Height: h}
}

func rowsFor(n, columns int) int {
	if n <= 0 {
		return 0
	}
	return (n + columns - 1) / columns
}

func rowsHeight(rows int, tier Tier) float64 {
	if rows == 0 {
		return 0
	}
	return float64(rows)*tier.TileHeight + float64(rows-1)*tier.Gap
}

func widthFor(columns int, tier Tier) float64 {
	return float64(columns)*tier.TileWidth + float64(columns-1)*tier.Gap + 2*tier.Padding
}

// MaxColumns returns the largest tile column count whose estimated width
// fits in width. It is at least 1.
func MaxColumns(width float64, tier Tier) int {
	c := 1
	for c < 64 && widthFor(c+1, tier) <= width {
		c++
	}
	return c
}

// ChooseColumns picks the tile column count for a box of the given target
// size when the user has not fixed one.
//
// Candidates run from 1 to the smallest of [MaxTestedColumns], the width
// limit ([MaxColumns]) and the largest subcategory (more columns than tiles
// never changes the height). The cost of a candidate is the area of the
// target box (grown to the required height) minus the area the content
// needs, plus [OverflowPenalty] per pixel of height above availHeight,
// scaled by the target width. The cheapest candidate wins; ties go to fewer
// columns.
func ChooseColumns(cat ecosystem.Category, tier Tier, target Dimensions, availHeight float64) int {
	counts := cat.Counts()
	limit := min(MaxTestedColumns, MaxColumns(target.Width, tier))
	largest := 0
	for _, n := range counts {
		largest = max(largest, n)
	}
	limit = max(1, min(limit, largest))

	best, bestCost := 1, math.Inf(1)
	for c := 1; c <= limit; c++ {
		req := EstimateCounts(counts, c, tier)
		cost := target.Width*math.Max(target.Height, req.Height) - req.Width*req.Height
		if req.Height > availHeight {
			cost += OverflowPenalty * target.Width * (req.Height - availHeight)
		}
		if cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best
}

// NextColumns advances a column count by one, wrapping to 1 once it passes
// the maximum that fits in width.
func NextColumns(current int, width float64, tier Tier) int {
	next := current + 1
	if next > MaxColumns(width, tier) {
		return 1
	}
	return next
}

// TilePlacement is one company tile inside a box.
type TilePlacement struct {
	Company ecosystem.Company `json:"company"`
	Rect    Rect              `json:"rect"`
}

// GroupPlacement is one subcategory label and its tiles.
type GroupPlacement struct {
	Name  string          `json:"name"`
	Label Rect            `json:"label"`
	Tiles []TilePlacement `json:"tiles"`
}

// Placement is the interior geometry of one category box.
// ContentHeight equals [Estimate] for the same columns and tier.
type Placement struct {
	Header        Rect             `json:"header"`
	Groups        []GroupPlacement `json:"groups"`
	Columns       int              `json:"columns"`
	ContentHeight float64          `json:"content_height"`
}

// PlaceTiles lays out the header, subcategory labels and tiles of cat inside
// a box of the given width. Tile heights and vertical spacing come from the
// tier, so the vertical extent matches [Estimate]; tile widths stretch or
// shrink to share the available width.
func PlaceTiles(cat ecosystem.Category, columns int, width float64, tier Tier) Placement {
	columns = max(columns, 1)
	inner := math.Max(width-2*tier.Padding, 0)
	tileW := math.Max((inner-float64(columns-1)*tier.Gap)/float64(columns), 0)

	p := Placement{Columns: columns}
	y := tier.Padding
	p.Header = Rect{X: tier.Padding, Y: y, W: inner, H: tier.CategoryHeader}
	y += tier.CategoryHeader

	for i, sub := range cat.Subcategories {
		if i > 0 {
			y += tier.SubcategorySpacing
		}
		g := GroupPlacement{
			Name:  sub.Name,
			Label: Rect{X: tier.Padding, Y: y, W: inner, H: tier.SubcategoryHeader},
		}
		y += tier.SubcategoryHeader

		for j, c := range sub.Companies {
			row, col := j/columns, j%columns
			g.Tiles = append(g.Tiles, TilePlacement{
				Company: c,
				Rect: Rect{
					X: tier.Padding + float64(col)*(tileW+tier.Gap),
					Y: y + float64(row)*(tier.TileHeight+tier.Gap),
					W: tileW,
					H: tier.TileHeight,
				},
			})
		}
		y += rowsHeight(rowsFor(len(sub.Companies), columns), tier)
		p.Groups = append(p.Groups, g)
	}

	p.ContentHeight = y + tier.Padding
	return p
}
