package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/render"
)

const defaultFontFamily = "Inter,system-ui,-apple-system,sans-serif"

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	font   string
	logos  bool
	boxIDs bool
}

// WithFontFamily sets the CSS font-family of all text.
func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.font = f } }

// WithoutLogos draws initial placeholders for every company.
func WithoutLogos() SVGOption { return func(r *svgRenderer) { r.logos = false } }

// WithBoxIDs adds an id attribute to every category group so a browser
// can find boxes by name.
func WithBoxIDs() SVGOption { return func(r *svgRenderer) { r.boxIDs = true } }

// RenderSVG draws the scene as a standalone SVG document.
// Logos are embedded as data URIs; companies without one get an initial
// placeholder. Content that overflows a box is clipped to it.
func RenderSVG(s render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{font: defaultFontFamily, logos: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(s.Width), px(s.Height))
	if s.Header.Title != "" {
		canvas.Title(s.Header.Title)
	}
	canvas.Rect(0, 0, px(s.Width), px(s.Height), "fill:"+render.CanvasColor)

	canvas.Def()
	for i, b := range s.Boxes {
		canvas.ClipPath(fmt.Sprintf(`id="%s"`, clipID(i)))
		canvas.Roundrect(px(b.X), px(b.Y), px(b.Width), px(b.Height), boxRadius, boxRadius)
		canvas.ClipEnd()
	}
	canvas.DefEnd()

	r.header(canvas, s)

	canvas.Translate(px(s.OffsetX), px(s.OffsetY))
	for i, b := range s.Boxes {
		r.box(canvas, s, i, b)
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

func clipID(i int) string { return fmt.Sprintf("box-clip-%d", i) }

func (r *svgRenderer) header(canvas *svg.SVG, s render.Scene) {
	if s.Header.Height == 0 {
		return
	}
	cx := px(s.Width / 2)
	if s.Header.Title != "" {
		canvas.Text(cx, px(render.Margin+render.TitleSize*0.5), s.Header.Title, r.textStyle(render.TitleColor, render.TitleSize, 700, "middle"))
	}
	if s.Header.Subtitle != "" {
		canvas.Text(cx, px(render.Margin+render.TitleSize*0.5+render.SubtitleSize*1.6), s.Header.Subtitle, r.textStyle(render.SubtitleColor, render.SubtitleSize, 400, "middle"))
	}
}

func (r *svgRenderer) box(canvas *svg.SVG, s render.Scene, i int, b render.Box) {
	attrs := []string{fmt.Sprintf(`clip-path="url(#%s)"`, clipID(i))}
	if r.boxIDs {
		attrs = append(attrs, fmt.Sprintf(`id="category-%d"`, i), fmt.Sprintf(`data-name="%s"`, html.EscapeString(b.Name)))
	}
	canvas.Group(attrs...)
	canvas.Roundrect(px(b.X), px(b.Y), px(b.Width), px(b.Height), boxRadius, boxRadius,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", b.Background, b.Border, borderW))

	tier := b.Tier
	h := b.Placement.Header
	title := render.Ellipsize(b.Name, max(int(h.W/(tier.TitleFont*0.6)), 1))
	canvas.Text(px(b.X+h.X), px(b.Y+h.Y+h.H/2+tier.TitleFont*0.35), title, r.textStyle(b.Text, tier.TitleFont, 700, "start"))

	labels := showLabel(b)
	for _, g := range b.Placement.Groups {
		if labels {
			l := g.Label
			canvas.Text(px(b.X+l.X), px(b.Y+l.Y+l.H/2+tier.SubtitleFont*0.35), g.Name,
				r.textStyle(b.Text, tier.SubtitleFont, 600, "start")+";opacity:0.85")
		}
		for _, t := range g.Tiles {
			r.tile(canvas, s, b, t)
		}
	}
	canvas.Gend()
}

func (r *svgRenderer) tile(canvas *svg.SVG, s render.Scene, b render.Box, t layout.TilePlacement) {
	rect := layout.Rect{X: b.X + t.Rect.X, Y: b.Y + t.Rect.Y, W: t.Rect.W, H: t.Rect.H}
	if s.ShowLogoBackground {
		canvas.Roundrect(px(rect.X), px(rect.Y), px(rect.W), px(rect.H), tileRadius, tileRadius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", render.TileColor, render.TileBorder))
	}

	parts := splitTile(rect, b.Tier)
	lr := parts.Logo
	if l, ok := s.Logo(t.Company.LogoRef); ok && r.logos {
		canvas.Image(px(lr.X), px(lr.Y), px(lr.W), px(lr.H), render.DataURI(l), `preserveAspectRatio="xMidYMid meet"`)
	} else if lr.W > 0 {
		cx, cy, rad := lr.X+lr.W/2, lr.Y+lr.H/2, lr.W/2
		canvas.Circle(px(cx), px(cy), px(rad), fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", b.Background, b.Border))
		canvas.Text(px(cx), px(cy+rad*0.35), t.Company.Initial(),
			r.textStyle(ecosystem.ContrastColor(b.Background), math.Max(rad, 8), 700, "middle"))
	}

	name := render.Ellipsize(t.Company.Name, parts.MaxChars)
	canvas.Text(px(parts.NameX), px(parts.NameY), name, r.textStyle(tileText(s, b), b.Tier.TileFont, 500, "middle"))
}

func (r *svgRenderer) textStyle(color string, size float64, weight int, anchor string) string {
	return fmt.Sprintf("fill:%s;font-family:%s;font-size:%gpx;font-weight:%d;text-anchor:%s", color, r.font, size, weight, anchor)
}

func px(v float64) int { return int(math.Round(v)) }
