package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/store"
)

// LogoExtensions are the file types picked up from a logo directory.
var LogoExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// IsLogoFile reports whether name has a logo extension.
func IsLogoFile(name string) bool {
	return slices.Contains(LogoExtensions, strings.ToLower(filepath.Ext(name)))
}

// LoadLogos registers every logo file directly inside dir and returns how
// many were added. Subdirectories and other files are ignored.
func LoadLogos(ctx context.Context, st *store.Store, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "read logo directory")
	}
	n := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if e.IsDir() || !IsLogoFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, errors.Wrap(errors.ErrCodeInvalidInput, err, "read logo %s", e.Name())
		}
		if len(data) == 0 {
			continue
		}
		if _, err := st.AddLogo(e.Name(), data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
