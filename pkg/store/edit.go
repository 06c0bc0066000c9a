package store

import (
	"math"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/layout"
)

// ChartUpdate holds the chart fields to change. Nil fields are left alone.
type ChartUpdate struct {
	Title              *string                `json:"title,omitempty"`
	Subtitle           *string                `json:"subtitle,omitempty"`
	Orientation        *ecosystem.Orientation `json:"orientation,omitempty"`
	ShowLogoBackground *bool                  `json:"show_logo_background,omitempty"`
}

// UpdateChart applies cosmetic chart changes. It never runs layout.
func (s *Store) UpdateChart(u ChartUpdate) error {
	if u.Orientation != nil {
		o, err := ecosystem.ParseOrientation(string(*u.Orientation))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "orientation")
		}
		u.Orientation = &o
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Title != nil {
		s.chart.Title = *u.Title
	}
	if u.Subtitle != nil {
		s.chart.Subtitle = *u.Subtitle
	}
	if u.Orientation != nil {
		s.chart.Orientation = *u.Orientation
	}
	if u.ShowLogoBackground != nil {
		s.chart.ShowLogoBackground = *u.ShowLogoBackground
	}
	return nil
}

// CategoryUpdate holds the category fields to change. Nil fields are left
// alone.
type CategoryUpdate struct {
	BackgroundColor *string         `json:"background_color,omitempty"`
	BorderColor     *string         `json:"border_color,omitempty"`
	TextColor       *string         `json:"text_color,omitempty"`
	Size            *ecosystem.Size `json:"size,omitempty"`
}

// UpdateCategory changes colors or the size tier of one category.
//
// Setting only the background recomputes a contrasting text color. Color
// changes are cosmetic. A tier change resizes that category and re-flows
// the map.
func (s *Store) UpdateCategory(name string, u CategoryUpdate) (Change, error) {
	var size ecosystem.Size
	if u.Size != nil {
		var err error
		if size, err = ecosystem.ParseSize(string(*u.Size)); err != nil {
			return Change{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "size")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cust, err := s.customization(name)
	if err != nil {
		return Change{}, err
	}
	if u.BackgroundColor != nil {
		cust.BackgroundColor = *u.BackgroundColor
		if u.TextColor == nil {
			cust.TextColor = ecosystem.ContrastColor(cust.BackgroundColor)
		}
	}
	if u.BorderColor != nil {
		cust.BorderColor = *u.BorderColor
	}
	if u.TextColor != nil {
		cust.TextColor = *u.TextColor
	}

	tierChanged := u.Size != nil && size != cust.Size.OrDefault()
	if u.Size != nil {
		cust.Size = size
	}
	s.chart.Categories[name] = cust

	if !tierChanged {
		return Change{}, nil
	}
	s.relayout(map[string]bool{name: true}, false)
	return Change{Changed: []string{name}, Clamped: s.clamped}, nil
}

// Move places a category at p and marks its position manual. Negative
// coordinates are clamped to zero.
func (s *Store) Move(name string, p ecosystem.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cust, err := s.customization(name)
	if err != nil {
		return err
	}
	cust.Position = ecosystem.Position{X: math.Max(p.X, 0), Y: math.Max(p.Y, 0)}
	cust.ManualPosition = true
	s.chart.Categories[name] = cust
	return nil
}

// Resize sets a category's box size and marks it manual. The size is
// clamped to the minimum box. Fixed column counts shrink to what fits in the
// new width; automatic ones are chosen again for the new size.
func (s *Store) Resize(name string, width, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cust, err := s.customization(name)
	if err != nil {
		return err
	}
	cust.Width = math.Max(width, layout.MinWidth)
	cust.Height = math.Max(height, layout.MinHeight)
	cust.ManualSize = true

	tier := s.engine.Tiers().For(cust.Size)
	cust.Columns = min(max(cust.Columns, 1), layout.MaxColumns(cust.Width, tier))
	if cat, ok := s.category(name); ok && !cust.ManualColumns {
		target := layout.Dimensions{Width: cust.Width, Height: cust.Height}
		cust.Columns = layout.ChooseColumns(cat, tier, target, s.engine.RowShare(len(s.categories)))
	}
	s.chart.Categories[name] = cust
	return nil
}

// SetColumns fixes a category's tile column count, clamped to what fits in
// its current width, and returns the stored value.
func (s *Store) SetColumns(name string, columns int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cust, err := s.customization(name)
	if err != nil {
		return 0, err
	}
	tier := s.engine.Tiers().For(cust.Size)
	cust.Columns = min(max(columns, 1), layout.MaxColumns(cust.Width, tier))
	cust.ManualColumns = true
	s.chart.Categories[name] = cust
	return cust.Columns, nil
}

// CycleColumns advances a category's tile columns by one, wrapping back to
// 1 after the widest count that fits.
func (s *Store) CycleColumns(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cust, err := s.customization(name)
	if err != nil {
		return 0, err
	}
	tier := s.engine.Tiers().For(cust.Size)
	cust.Columns = layout.NextColumns(cust.Columns, cust.Width, tier)
	cust.ManualColumns = true
	s.chart.Categories[name] = cust
	return cust.Columns, nil
}

// category returns the grouped content of a category. Callers hold the lock.
func (s *Store) category(name string) (ecosystem.Category, bool) {
	for _, cat := range s.categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return ecosystem.Category{}, false
}

// customization returns the stored customization of a known category.
// Callers hold the lock.
func (s *Store) customization(name string) (ecosystem.CategoryCustomization, error) {
	cust, ok := s.chart.Categories[name]
	if !ok {
		return cust, errors.New(errors.ErrCodeCategoryNotFound, "category not found: %s", name)
	}
	return cust, nil
}
