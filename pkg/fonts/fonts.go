// Package fonts provides the parsed fonts used for raster rendering.
//
// The fonts are the Go font family from golang.org/x/image, compiled into
// the binary so PNG export needs no system fonts. They are parsed once on
// first use.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Set holds the regular and bold faces.
type Set struct {
	Regular *truetype.Font
	Bold    *truetype.Font
}

// Font returns the bold or regular face.
func (s Set) Font(bold bool) *truetype.Font {
	if bold {
		return s.Bold
	}
	return s.Regular
}

var load = sync.OnceValues(func() (Set, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return Set{}, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return Set{}, fmt.Errorf("parse bold font: %w", err)
	}
	return Set{Regular: regular, Bold: bold}, nil
})

// Load returns the parsed font set.
func Load() (Set, error) {
	return load()
}
