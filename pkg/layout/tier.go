package layout

import "github.com/matzehuels/ecomap/pkg/ecosystem"

// Box limits shared by the engine and the interaction layer.
const (
	MinWidth         = 200.0
	MinHeight        = 150.0
	DefaultHeight    = 288.0
	MaxTestedColumns = 4
	OverflowPenalty  = 4.0
)

// Tier holds the pixel constants of one size tier.
// Padding applies on every side of the box.
type Tier struct {
	BoxWidth           float64 `toml:"box_width" json:"box_width"`
	TileWidth          float64 `toml:"tile_width" json:"tile_width"`
	TileHeight         float64 `toml:"tile_height" json:"tile_height"`
	Gap                float64 `toml:"gap" json:"gap"`
	CategoryHeader     float64 `toml:"category_header" json:"category_header"`
	SubcategoryHeader  float64 `toml:"subcategory_header" json:"subcategory_header"`
	SubcategorySpacing float64 `toml:"subcategory_spacing" json:"subcategory_spacing"`
	Padding            float64 `toml:"padding" json:"padding"`

	TitleFont    float64 `toml:"title_font" json:"title_font"`
	SubtitleFont float64 `toml:"subtitle_font" json:"subtitle_font"`
	TileFont     float64 `toml:"tile_font" json:"tile_font"`
	LogoSize     float64 `toml:"logo_size" json:"logo_size"`
}

// TierTable indexes tiers by size.
type TierTable map[ecosystem.Size]Tier

// DefaultTiers returns the built-in tier table.
func DefaultTiers() TierTable {
	return TierTable{
		ecosystem.SizeSmall: {
			BoxWidth: 260, TileWidth: 96, TileHeight: 64, Gap: 8,
			CategoryHeader: 40, SubcategoryHeader: 24, SubcategorySpacing: 12, Padding: 16,
			TitleFont: 18, SubtitleFont: 12, TileFont: 11, LogoSize: 24,
		},
		ecosystem.SizeMedium: {
			BoxWidth: 320, TileWidth: 120, TileHeight: 80, Gap: 12,
			CategoryHeader: 52, SubcategoryHeader: 28, SubcategorySpacing: 18, Padding: 24,
			TitleFont: 20, SubtitleFont: 14, TileFont: 13, LogoSize: 32,
		},
		ecosystem.SizeLarge: {
			BoxWidth: 400, TileWidth: 144, TileHeight: 96, Gap: 12,
			CategoryHeader: 64, SubcategoryHeader: 32, SubcategorySpacing: 24, Padding: 32,
			TitleFont: 24, SubtitleFont: 16, TileFont: 15, LogoSize: 40,
		},
	}
}

// For returns the tier for s, falling back to medium for unknown sizes.
func (t TierTable) For(s ecosystem.Size) Tier {
	if tier, ok := t[s.OrDefault()]; ok {
		return tier
	}
	if tier, ok := t[ecosystem.SizeMedium]; ok {
		return tier
	}
	return DefaultTiers()[ecosystem.SizeMedium]
}
