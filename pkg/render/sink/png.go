package sink

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/fonts"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/render"
)

// DefaultScale is the pixel ratio of PNG exports.
const DefaultScale = 2.0

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
	logos bool
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithoutPNGLogos draws initial placeholders for every company.
func WithoutPNGLogos() PNGOption {
	return func(r *pngRenderer) { r.logos = false }
}

// RenderPNG rasterizes the scene natively, without an SVG round trip.
//
// SVG logos cannot be decoded by the raster path and are drawn as initial
// placeholders; use [render.ToPNG] on [RenderSVG] output when they matter.
func RenderPNG(s render.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: DefaultScale, logos: true}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) {
		return nil, fmt.Errorf("invalid scale %g", r.scale)
	}
	set, err := fonts.Load()
	if err != nil {
		return nil, err
	}

	w := int(math.Ceil(s.Width * r.scale))
	h := int(math.Ceil(s.Height * r.scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty canvas %dx%d", w, h)
	}

	p := &painter{
		dc:     gg.NewContext(w, h),
		scale:  r.scale,
		fonts:  set,
		faces:  make(map[faceKey]font.Face),
		images: make(map[string]image.Image),
		logos:  r.logos,
	}
	p.dc.SetHexColor(render.CanvasColor)
	p.dc.Clear()

	p.header(s)
	for _, b := range s.Boxes {
		p.box(s, b)
	}

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type faceKey struct {
	bold bool
	size float64
}

// painter draws in scene units. gg does not scale glyphs with its
// transform, so coordinates and font sizes are multiplied by scale here.
type painter struct {
	dc     *gg.Context
	scale  float64
	fonts  fonts.Set
	faces  map[faceKey]font.Face
	images map[string]image.Image
	logos  bool
	ox, oy float64
}

func (p *painter) at(x, y float64) (float64, float64) {
	return (x + p.ox) * p.scale, (y + p.oy) * p.scale
}

func (p *painter) face(size float64, bold bool) font.Face {
	k := faceKey{bold: bold, size: size * p.scale}
	if f, ok := p.faces[k]; ok {
		return f
	}
	f := truetype.NewFace(p.fonts.Font(bold), &truetype.Options{Size: k.size, DPI: 72, Hinting: font.HintingFull})
	p.faces[k] = f
	return f
}

func (p *painter) roundRect(r layout.Rect, radius float64) {
	x, y := p.at(r.X, r.Y)
	p.dc.DrawRoundedRectangle(x, y, r.W*p.scale, r.H*p.scale, radius*p.scale)
}

// text draws s with its baseline at (x, y), shortened with "…" to fit
// maxW scene units. ax is the horizontal anchor (0 start, 0.5 middle).
func (p *painter) text(s string, x, y, maxW, size float64, bold bool, color string, ax float64) {
	p.dc.SetFontFace(p.face(size, bold))
	p.dc.SetHexColor(ecosystem.ToHex(color, ecosystem.DarkText))
	s = p.fit(s, maxW*p.scale)
	tx, ty := p.at(x, y)
	p.dc.DrawStringAnchored(s, tx, ty, ax, 0)
}

func (p *painter) fit(s string, maxW float64) string {
	if maxW <= 0 {
		return s
	}
	if w, _ := p.dc.MeasureString(s); w <= maxW {
		return s
	}
	n := len([]rune(s))
	for n > 1 {
		n--
		cut := render.Ellipsize(s, n)
		if w, _ := p.dc.MeasureString(cut); w <= maxW {
			return cut
		}
	}
	return render.Ellipsize(s, 1)
}

func (p *painter) header(s render.Scene) {
	if s.Header.Height == 0 {
		return
	}
	maxW := s.Width - 2*render.Margin
	if s.Header.Title != "" {
		p.text(s.Header.Title, s.Width/2, render.Margin+render.TitleSize*0.5, maxW, render.TitleSize, true, render.TitleColor, 0.5)
	}
	if s.Header.Subtitle != "" {
		p.text(s.Header.Subtitle, s.Width/2, render.Margin+render.TitleSize*0.5+render.SubtitleSize*1.6, maxW, render.SubtitleSize, false, render.SubtitleColor, 0.5)
	}
}

func (p *painter) box(s render.Scene, b render.Box) {
	p.ox, p.oy = s.OffsetX, s.OffsetY
	defer func() { p.ox, p.oy = 0, 0 }()

	bounds := layout.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
	p.roundRect(bounds, boxRadius)
	p.dc.SetHexColor(ecosystem.ToHex(b.Background, render.TileBorder))
	p.dc.FillPreserve()
	p.dc.SetHexColor(ecosystem.ToHex(b.Border, render.TileBorder))
	p.dc.SetLineWidth(borderW * p.scale)
	p.dc.Stroke()

	p.roundRect(bounds, boxRadius)
	p.dc.Clip()
	defer p.dc.ResetClip()

	tier := b.Tier
	h := b.Placement.Header
	p.text(b.Name, b.X+h.X, b.Y+h.Y+h.H/2+tier.TitleFont*0.35, h.W, tier.TitleFont, true, b.Text, 0)

	labels := showLabel(b)
	for _, g := range b.Placement.Groups {
		if labels {
			l := g.Label
			p.text(g.Name, b.X+l.X, b.Y+l.Y+l.H/2+tier.SubtitleFont*0.35, l.W, tier.SubtitleFont, true, b.Text, 0)
		}
		for _, t := range g.Tiles {
			p.tile(s, b, t)
		}
	}
}

func (p *painter) tile(s render.Scene, b render.Box, t layout.TilePlacement) {
	rect := layout.Rect{X: b.X + t.Rect.X, Y: b.Y + t.Rect.Y, W: t.Rect.W, H: t.Rect.H}
	if s.ShowLogoBackground {
		p.roundRect(rect, tileRadius)
		p.dc.SetHexColor(render.TileColor)
		p.dc.FillPreserve()
		p.dc.SetHexColor(render.TileBorder)
		p.dc.SetLineWidth(p.scale)
		p.dc.Stroke()
	}

	parts := splitTile(rect, b.Tier)
	if img := p.logo(s, t.Company.LogoRef); img != nil {
		p.image(img, parts.Logo)
	} else if parts.Logo.W > 0 {
		p.placeholder(b, t.Company, parts.Logo)
	}
	p.text(t.Company.Name, parts.NameX, parts.NameY, rect.W-8, b.Tier.TileFont, false, tileText(s, b), 0.5)
}

// logo decodes a logo blob once per render. Undecodable blobs, SVG
// included, yield nil.
func (p *painter) logo(s render.Scene, ref string) image.Image {
	if !p.logos || ref == "" {
		return nil
	}
	if img, ok := p.images[ref]; ok {
		return img
	}
	var img image.Image
	if l, ok := s.Logo(ref); ok {
		img, _, _ = image.Decode(bytes.NewReader(l.Data))
	}
	p.images[ref] = img
	return img
}

// image draws img centered in r, keeping its aspect ratio.
func (p *painter) image(img image.Image, r layout.Rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || r.W <= 0 {
		return
	}
	k := math.Min(r.W/float64(b.Dx()), r.H/float64(b.Dy()))
	w, h := float64(b.Dx())*k, float64(b.Dy())*k
	x, y := p.at(r.X+(r.W-w)/2, r.Y+(r.H-h)/2)

	p.dc.Push()
	p.dc.Translate(x, y)
	p.dc.Scale(k*p.scale, k*p.scale)
	p.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	p.dc.Pop()
}

func (p *painter) placeholder(b render.Box, c ecosystem.Company, r layout.Rect) {
	cx, cy := p.at(r.X+r.W/2, r.Y+r.H/2)
	rad := r.W / 2
	p.dc.DrawCircle(cx, cy, rad*p.scale)
	p.dc.SetHexColor(ecosystem.ToHex(b.Background, render.TileBorder))
	p.dc.FillPreserve()
	p.dc.SetHexColor(ecosystem.ToHex(b.Border, render.TileBorder))
	p.dc.SetLineWidth(p.scale)
	p.dc.Stroke()

	p.dc.SetFontFace(p.face(math.Max(rad, 8), true))
	p.dc.SetHexColor(ecosystem.ContrastColor(ecosystem.ToHex(b.Background, render.TileBorder)))
	p.dc.DrawStringAnchored(c.Initial(), cx, cy, 0.5, 0.35)
}
