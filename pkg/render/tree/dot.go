package tree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/render"
)

// Options configures hierarchy rendering.
type Options struct {
	// Title labels the root node. Defaults to "Ecosystem".
	Title string
	// Collapse hides the subcategory level when a category has only the
	// default subcategory.
	Collapse bool
}

// ToDOT converts the boxes of a scene into a left-to-right Graphviz
// hierarchy: root -> category -> subcategory -> company.
//
// Category nodes use the box colors, so the diagram reads like the map.
func ToDOT(s render.Scene, opts Options) string {
	title := opts.Title
	if title == "" {
		title = s.Header.Title
	}
	if title == "" {
		title = "Ecosystem"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  %q [label=%q, fontsize=20];\n", "root", title)

	for i, b := range s.Boxes {
		cat := fmt.Sprintf("c%d", i)
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, fontcolor=%q, color=%q];\n",
			cat, b.Name,
			ecosystem.ToHex(b.Background, "#ffffff"),
			ecosystem.ToHex(b.Text, ecosystem.DarkText),
			ecosystem.ToHex(b.Border, "#000000"))
		fmt.Fprintf(&buf, "  %q -> %q;\n", "root", cat)

		groups := b.Placement.Groups
		flat := opts.Collapse && len(groups) == 1 && groups[0].Name == ecosystem.DefaultSubcategory
		for j, g := range groups {
			parent := cat
			if !flat {
				parent = fmt.Sprintf("c%d.s%d", i, j)
				fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\"];\n", parent, g.Name)
				fmt.Fprintf(&buf, "  %q -> %q;\n", cat, parent)
			}
			for k, t := range g.Tiles {
				id := fmt.Sprintf("c%d.s%d.t%d", i, j, k)
				fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(companyAttrs(t.Company), ", "))
				fmt.Fprintf(&buf, "  %q -> %q;\n", parent, id)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func companyAttrs(c ecosystem.Company) []string {
	attrs := []string{fmt.Sprintf("label=%q", c.Name)}
	if c.LogoRef == "" {
		attrs = append(attrs, "color=\"#9ca3af\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based root element with a
// pixel-sized one so the diagram scales like the map exports.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}
