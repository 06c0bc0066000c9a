package sink

import (
	"math"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/render"
)

const (
	boxRadius  = 12.0
	tileRadius = 6.0
	borderW    = 2.0
)

// tileParts is the interior of one company tile: a square logo slot with
// the name centered below it.
type tileParts struct {
	Logo     layout.Rect
	NameX    float64
	NameY    float64 // baseline
	MaxChars int
}

func splitTile(r layout.Rect, tier layout.Tier) tileParts {
	size := math.Min(tier.LogoSize, math.Max(r.H-tier.TileFont-12, 0))
	size = math.Max(math.Min(size, r.W-8), 0)
	top := r.Y + (r.H-size-tier.TileFont-4)/2
	return tileParts{
		Logo:     layout.Rect{X: r.X + (r.W-size)/2, Y: top, W: size, H: size},
		NameX:    r.X + r.W/2,
		NameY:    top + size + 4 + tier.TileFont*0.8,
		MaxChars: max(int((r.W-8)/(tier.TileFont*0.6)), 1),
	}
}

// showLabel reports whether a box draws subcategory labels. A box whose
// only group is the default subcategory draws its tiles unlabeled.
func showLabel(b render.Box) bool {
	g := b.Placement.Groups
	return !(len(g) == 1 && g[0].Name == ecosystem.DefaultSubcategory)
}

// tileText is the name color inside a tile.
func tileText(s render.Scene, b render.Box) string {
	if s.ShowLogoBackground {
		return ecosystem.DarkText
	}
	return b.Text
}
