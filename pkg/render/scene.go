package render

import (
	"encoding/base64"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/logo"
)

// Export geometry.
const (
	Margin       = 40.0
	HeaderHeight = 96.0
	TitleSize    = 32.0
	SubtitleSize = 18.0

	LandscapeMinWidth  = 1280.0
	LandscapeMinHeight = 720.0
	PortraitMinWidth   = 800.0
	PortraitMinHeight  = 1131.0
)

// Chart text colors.
const (
	TitleColor    = "#111827"
	SubtitleColor = "#6b7280"
	CanvasColor   = "#ffffff"
	TileColor     = "#ffffff"
	TileBorder    = "#e5e7eb"
)

// LogoSource looks up logo blobs by reference. [logo.Registry] implements it.
type LogoSource interface {
	Blob(ref string) (logo.Logo, bool)
}

// Header is the chart title band above the boxes.
type Header struct {
	Title    string  `json:"title,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
	Height   float64 `json:"height"`
}

// Box is one category in canvas coordinates.
type Box struct {
	Name       string           `json:"name"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Background string           `json:"background"`
	Border     string           `json:"border"`
	Text       string           `json:"text"`
	Size       ecosystem.Size   `json:"size"`
	Tier       layout.Tier      `json:"-"`
	Placement  layout.Placement `json:"placement"`
}

// Clipped reports whether the box is shorter than its content.
func (b Box) Clipped() bool { return b.Placement.ContentHeight > b.Height }

// Scene is everything a sink needs to draw one map.
//
// Box coordinates are canvas coordinates; sinks translate them by
// (OffsetX, OffsetY) so the header band and centering padding fit.
type Scene struct {
	Width              float64               `json:"width"`
	Height             float64               `json:"height"`
	OffsetX            float64               `json:"offset_x"`
	OffsetY            float64               `json:"offset_y"`
	Orientation        ecosystem.Orientation `json:"orientation"`
	ShowLogoBackground bool                  `json:"show_logo_background"`
	Header             Header                `json:"header"`
	Boxes              []Box                 `json:"boxes"`
	Logos              map[string]logo.Logo  `json:"-"`
}

// Logo returns the blob for a company's logo reference.
func (s Scene) Logo(ref string) (logo.Logo, bool) {
	l, ok := s.Logos[ref]
	return l, ok
}

// Clipped lists the boxes whose content does not fit, in drawing order.
func (s Scene) Clipped() []string {
	var names []string
	for _, b := range s.Boxes {
		if b.Clipped() {
			names = append(names, b.Name)
		}
	}
	return names
}

// NewScene builds a scene from grouped categories and their customization.
// Categories without a customization are not drawn. logos may be nil.
func NewScene(cats []ecosystem.Category, chart ecosystem.ChartCustomization, tiers layout.TierTable, logos LogoSource) Scene {
	if tiers == nil {
		tiers = layout.DefaultTiers()
	}
	s := Scene{
		Orientation:        chart.Orientation,
		ShowLogoBackground: chart.ShowLogoBackground,
		Header:             Header{Title: chart.Title, Subtitle: chart.Subtitle},
		Logos:              make(map[string]logo.Logo),
	}
	if s.Orientation == "" {
		s.Orientation = ecosystem.Landscape
	}
	if s.Header.Title != "" || s.Header.Subtitle != "" {
		s.Header.Height = HeaderHeight
	}

	var content layout.Dimensions
	for _, cat := range cats {
		cust, ok := chart.Categories[cat.Name]
		if !ok {
			continue
		}
		tier := tiers.For(cust.Size)
		b := Box{
			Name:       cat.Name,
			X:          cust.Position.X,
			Y:          cust.Position.Y,
			Width:      cust.Width,
			Height:     cust.Height,
			Background: cust.BackgroundColor,
			Border:     cust.BorderColor,
			Text:       cust.TextColor,
			Size:       cust.Size.OrDefault(),
			Tier:       tier,
			Placement:  layout.PlaceTiles(cat, cust.Columns, cust.Width, tier),
		}
		s.Boxes = append(s.Boxes, b)
		content.Width = math.Max(content.Width, b.X+b.Width)
		content.Height = math.Max(content.Height, b.Y+b.Height)

		if logos == nil {
			continue
		}
		for _, c := range cat.Companies {
			if c.LogoRef == "" {
				continue
			}
			if l, ok := logos.Blob(c.LogoRef); ok {
				s.Logos[c.LogoRef] = l
			}
		}
	}

	if len(s.Boxes) > 0 {
		content.Width += Margin
		content.Height += Margin
	}
	content.Height += s.Header.Height

	size := ExportSize(content, s.Orientation)
	s.Width, s.Height = size.Width, size.Height
	s.OffsetX = math.Floor((s.Width - content.Width) / 2)
	s.OffsetY = s.Header.Height
	return s
}

// ExportSize grows content to the orientation's aspect ratio and minimum
// size, rounding up to whole pixels.
func ExportSize(content layout.Dimensions, o ecosystem.Orientation) layout.Dimensions {
	w, h := math.Max(content.Width, 0), math.Max(content.Height, 0)
	ratio, minW, minH := 16.0/9.0, LandscapeMinWidth, LandscapeMinHeight
	if o == ecosystem.Portrait {
		ratio, minW, minH = 1/math.Sqrt2, PortraitMinWidth, PortraitMinHeight
	}
	if h > 0 && w/h < ratio {
		w = h * ratio
	} else {
		h = w / ratio
	}
	return layout.Dimensions{
		Width:  math.Ceil(math.Max(w, minW)),
		Height: math.Ceil(math.Max(h, minH)),
	}
}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	unsafeRe = regexp.MustCompile(`[/\\:*?"<>|]+`)
)

// ExportFilename derives a download name from the chart title: lowercased,
// whitespace runs turned into hyphens, with an "-ecosystem-map" suffix.
// An empty title gives "ecosystem-map".
func ExportFilename(title, ext string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = unsafeRe.ReplaceAllString(base, "")
	base = spaceRe.ReplaceAllString(base, "-")
	if base == "" {
		base = "ecosystem-map"
	} else {
		base += "-ecosystem-map"
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		base += "." + ext
	}
	return base
}

// DataURI encodes a logo for embedding in SVG.
func DataURI(l logo.Logo) string {
	ct := l.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(l.Data)
}

// Ellipsize shortens s to at most n runes, marking the cut with "…".
func Ellipsize(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return strings.TrimRight(string(r[:n-1]), " ") + "…"
}
