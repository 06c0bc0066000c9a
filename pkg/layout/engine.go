package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
)

// Canvas is the fixed drawing area boxes are placed on. It never grows;
// boxes that would leave it are clamped back in.
type Canvas struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Margin float64 `toml:"margin" json:"margin"`
	GapX   float64 `toml:"gap_x" json:"gap_x"`
	GapY   float64 `toml:"gap_y" json:"gap_y"`
}

// DefaultCanvas returns a 1600×1800 canvas with a 40px margin and 24px gaps.
func DefaultCanvas() Canvas {
	return Canvas{Width: 1600, Height: 1800, Margin: 40, GapX: 24, GapY: 24}
}

// Validate checks that the canvas leaves room for at least one minimum box.
func (c Canvas) Validate() error {
	if c.Margin < 0 || c.GapX < 0 || c.GapY < 0 {
		return fmt.Errorf("canvas margin and gaps must not be negative")
	}
	if c.Width-2*c.Margin < MinWidth || c.Height-2*c.Margin < MinHeight {
		return fmt.Errorf("canvas %gx%g with margin %g cannot hold a %gx%g box",
			c.Width, c.Height, c.Margin, MinWidth, MinHeight)
	}
	return nil
}

// Inner returns the size available inside the margins.
func (c Canvas) Inner() Dimensions {
	return Dimensions{Width: c.Width - 2*c.Margin, Height: c.Height - 2*c.Margin}
}

// GridColumns maps a category count to the number of grid columns.
//
//	0      → 0
//	1..2   → 2
//	3..6   → 3
//	7..12  → 4
//	13+    → ceil(sqrt(n)) clamped to [4, 5]
func GridColumns(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 2:
		return 2
	case n <= 6:
		return 3
	case n <= 12:
		return 4
	}
	return min(max(int(math.Ceil(math.Sqrt(float64(n)))), 4), 5)
}

// Engine lays out category boxes. The zero value is not usable; call [New].
type Engine struct {
	canvas Canvas
	tiers  TierTable
}

// Option configures an [Engine].
type Option func(*Engine)

// WithCanvas sets the canvas.
func WithCanvas(c Canvas) Option { return func(e *Engine) { e.canvas = c } }

// WithTiers replaces the tier table.
func WithTiers(t TierTable) Option { return func(e *Engine) { e.tiers = t } }

// New creates an engine with the default canvas and tiers.
func New(opts ...Option) *Engine {
	e := &Engine{canvas: DefaultCanvas(), tiers: DefaultTiers()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Canvas returns the engine's canvas.
func (e *Engine) Canvas() Canvas { return e.canvas }

// Tiers returns the engine's tier table.
func (e *Engine) Tiers() TierTable { return e.tiers }

// Request is the input of [Engine.Layout].
type Request struct {
	// Categories in display order.
	Categories []ecosystem.Category
	// Current customizations by category name. Missing entries get
	// [ecosystem.DefaultCustomization].
	Current map[string]ecosystem.CategoryCustomization
	// Changed names the categories whose content changed since the last
	// layout.
	Changed map[string]bool
	// Force discards manual positions, sizes and column counts.
	Force bool
}

// Result is the output of [Engine.Layout].
type Result struct {
	Categories map[string]ecosystem.CategoryCustomization
	// GridColumns and GridRows describe the placement grid.
	GridColumns int
	GridRows    int
	// Clamped lists categories whose position or size was pulled back
	// inside the canvas, in display order.
	Clamped []string
}

// Layout computes position, size and tile columns for every category.
//
// Auto-sized boxes are always recomputed; since sizing is a pure function
// of content and tier, unchanged categories get the same values again.
// Colors and size tiers pass through untouched.
func (e *Engine) Layout(req Request) Result {
	n := len(req.Categories)
	res := Result{
		Categories:  make(map[string]ecosystem.CategoryCustomization, n),
		GridColumns: GridColumns(n),
	}
	if n == 0 {
		return res
	}
	cols := res.GridColumns
	res.GridRows = (n + cols - 1) / cols

	inner := e.canvas.Inner()
	slot := inner.Width / float64(cols)
	avail := e.RowShare(n)
	custs := make([]ecosystem.CategoryCustomization, n)
	for i, cat := range req.Categories {
		cust, ok := req.Current[cat.Name]
		if !ok {
			cust = ecosystem.DefaultCustomization(cat)
		}
		if req.Force {
			cust.ManualPosition, cust.ManualSize, cust.ManualColumns = false, false, false
		}
		tier := e.tiers.For(cust.Size)

		autoWidth := math.Min(tier.BoxWidth, slot-e.canvas.GapX)
		if autoWidth < MinWidth {
			autoWidth = math.Min(MinWidth, slot)
		}

		w := autoWidth
		target := Dimensions{Width: w, Height: DefaultHeight}
		if cust.ManualSize {
			w = clamp(cust.Width, MinWidth, inner.Width)
			target = Dimensions{Width: w, Height: math.Max(cust.Height, MinHeight)}
		}

		if cust.ManualColumns && cust.Columns > 0 {
			cust.Columns = min(cust.Columns, MaxColumns(w, tier))
		} else {
			cust.ManualColumns = false
			cust.Columns = ChooseColumns(cat, tier, target, avail)
		}

		required := Estimate(cat, cust.Columns, tier).Height
		var h float64
		if cust.ManualSize {
			h = math.Max(cust.Height, MinHeight)
			if req.Changed[cat.Name] && required > h {
				h = required
			}
		} else {
			h = math.Max(MinHeight, required)
		}
		cust.Width, cust.Height = w, math.Min(h, inner.Height)
		if cust.Height < h {
			res.Clamped = appendOnce(res.Clamped, cat.Name)
		}
		custs[i] = cust
	}

	rowHeights := make([]float64, res.GridRows)
	for i, c := range custs {
		r := i / cols
		rowHeights[r] = math.Max(rowHeights[r], c.Height)
	}
	rowY := make([]float64, res.GridRows)
	y := e.canvas.Margin
	for r := range rowHeights {
		rowY[r] = y
		y += rowHeights[r] + e.canvas.GapY
	}

	for i, cat := range req.Categories {
		c := custs[i]
		pos := c.Position
		if !c.ManualPosition {
			pos = ecosystem.Position{
				X: e.canvas.Margin + float64(i%cols)*slot,
				Y: rowY[i/cols],
			}
		}
		clamped := e.ClampPosition(pos, c.Width, c.Height)
		if clamped != pos {
			res.Clamped = appendOnce(res.Clamped, cat.Name)
		}
		c.Position = clamped
		res.Categories[cat.Name] = c
	}
	return res
}

// RowShare returns the height one grid row gets when n categories split
// the canvas evenly. It never drops below [MinHeight].
func (e *Engine) RowShare(n int) float64 {
	inner := e.canvas.Inner().Height
	rows := 1
	if cols := GridColumns(n); cols > 0 {
		rows = (n + cols - 1) / cols
	}
	return math.Max((inner-float64(rows-1)*e.canvas.GapY)/float64(rows), MinHeight)
}

// ClampPosition keeps a box of the given size inside the canvas:
// x in [0, Width-Margin-w] and y in [0, Height-Margin-h].
func (e *Engine) ClampPosition(p ecosystem.Position, w, h float64) ecosystem.Position {
	return ecosystem.Position{
		X: clamp(p.X, 0, math.Max(e.canvas.Width-e.canvas.Margin-w, 0)),
		Y: clamp(p.Y, 0, math.Max(e.canvas.Height-e.canvas.Margin-h, 0)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
