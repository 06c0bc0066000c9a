package sink

import (
	"encoding/json"

	"github.com/matzehuels/ecomap/pkg/buildinfo"
	"github.com/matzehuels/ecomap/pkg/render"
)

type jsonOutput struct {
	Generator string `json:"generator"`
	render.Scene
	LogoRefs []string `json:"logo_refs,omitempty"`
}

// RenderJSON dumps the scene geometry as pretty-printed JSON: canvas size,
// header, every box with its colors, tier and tile rectangles. Logo blobs
// are referenced, not embedded.
func RenderJSON(s render.Scene) ([]byte, error) {
	out := jsonOutput{
		Generator: "ecomap " + buildinfo.Current().Version,
		Scene:     s,
	}
	seen := make(map[string]bool)
	for _, b := range s.Boxes {
		for _, g := range b.Placement.Groups {
			for _, t := range g.Tiles {
				ref := t.Company.LogoRef
				if _, ok := s.Logos[ref]; ok && !seen[ref] {
					seen[ref] = true
					out.LogoRefs = append(out.LogoRefs, ref)
				}
			}
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
