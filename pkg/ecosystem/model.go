package ecosystem

import (
	"fmt"
	"strings"
)

// DefaultSubcategory is the bucket for companies without a subcategory.
const DefaultSubcategory = "Other"

// Company is a single tile on the map.
//
// ID is unique within one import (name, category and row index). Only
// LogoRef changes after creation, when a matching logo is registered or
// removed.
type Company struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory,omitempty"`
	LogoFilename string `json:"logo_filename,omitempty"`
	LogoRef      string `json:"logo_ref,omitempty"`
}

// NewCompany builds a company with the composite ID used by imports.
func NewCompany(name, category, subcategory, logoFilename string, index int) Company {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	return Company{
		ID:           fmt.Sprintf("%s-%s-%d", name, category, index),
		Name:         name,
		Category:     category,
		Subcategory:  strings.TrimSpace(subcategory),
		LogoFilename: strings.TrimSpace(logoFilename),
	}
}

// SubcategoryName returns the bucket the company belongs to.
func (c Company) SubcategoryName() string {
	if c.Subcategory == "" {
		return DefaultSubcategory
	}
	return c.Subcategory
}

// Initial returns the placeholder letter drawn when no logo is available.
func (c Company) Initial() string {
	for _, r := range c.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// Subcategory is an ordered group of companies inside a category.
type Subcategory struct {
	Name      string    `json:"name"`
	Companies []Company `json:"companies"`
}

// Category is one box on the map.
type Category struct {
	Name          string        `json:"name"`
	Companies     []Company     `json:"companies"`
	Subcategories []Subcategory `json:"subcategories"`
	Color         string        `json:"color"`
}

// Counts returns the company count of every subcategory in order.
func (c Category) Counts() []int {
	out := make([]int, len(c.Subcategories))
	for i, s := range c.Subcategories {
		out[i] = len(s.Companies)
	}
	return out
}

// Signature summarizes the content that drives the box size: subcategory
// names and their company counts. Logos and colors are not part of it.
func (c Category) Signature() string {
	var b strings.Builder
	for _, s := range c.Subcategories {
		fmt.Fprintf(&b, "%s:%d;", s.Name, len(s.Companies))
	}
	return b.String()
}

// Size is the visual tier of a category box.
type Size string

// Size tiers.
const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// ParseSize converts a tier name. The empty string maps to [SizeMedium].
func ParseSize(s string) (Size, error) {
	switch Size(strings.ToLower(strings.TrimSpace(s))) {
	case SizeSmall:
		return SizeSmall, nil
	case SizeMedium, "":
		return SizeMedium, nil
	case SizeLarge:
		return SizeLarge, nil
	}
	return "", fmt.Errorf("invalid size: %q (must be small, medium, or large)", s)
}

// OrDefault returns s, or [SizeMedium] when s is unset.
func (s Size) OrDefault() Size {
	if s == "" {
		return SizeMedium
	}
	return s
}

// Position is the top-left corner of a box in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CategoryCustomization is the user-editable half of a category box.
//
// The Manual* flags record which parts the user set directly. The layout
// engine keeps flagged values until an explicit re-layout.
type CategoryCustomization struct {
	BackgroundColor string   `json:"background_color"`
	BorderColor     string   `json:"border_color"`
	TextColor       string   `json:"text_color"`
	Size            Size     `json:"size"`
	Position        Position `json:"position"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Columns         int      `json:"columns"`

	ManualPosition bool `json:"manual_position,omitempty"`
	ManualSize     bool `json:"manual_size,omitempty"`
	ManualColumns  bool `json:"manual_columns,omitempty"`
}

// DefaultCustomization returns the customization a category gets the first
// time it appears.
func DefaultCustomization(c Category) CategoryCustomization {
	color := c.Color
	if color == "" {
		color = ColorFromString(c.Name)
	}
	return CategoryCustomization{
		BackgroundColor: color,
		BorderColor:     color,
		TextColor:       ContrastColor(color),
		Size:            SizeMedium,
		Columns:         1,
	}
}

// Orientation selects the aspect ratio of exported images.
type Orientation string

// Orientations.
const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// ParseOrientation converts an orientation name. Empty maps to [Landscape].
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case Landscape, "":
		return Landscape, nil
	case Portrait:
		return Portrait, nil
	}
	return "", fmt.Errorf("invalid orientation: %q (must be landscape or portrait)", s)
}

// ChartCustomization is the chart-wide state of one editing session.
type ChartCustomization struct {
	Title              string                           `json:"title"`
	Subtitle           string                           `json:"subtitle"`
	Categories         map[string]CategoryCustomization `json:"categories"`
	Orientation        Orientation                      `json:"orientation"`
	ShowLogoBackground bool                             `json:"show_logo_background"`
}

// DefaultChart returns the session-start chart state.
func DefaultChart() ChartCustomization {
	return ChartCustomization{
		Title:              "Ecosystem Map",
		Categories:         make(map[string]CategoryCustomization),
		Orientation:        Landscape,
		ShowLogoBackground: true,
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (c ChartCustomization) Clone() ChartCustomization {
	out := c
	out.Categories = make(map[string]CategoryCustomization, len(c.Categories))
	for k, v := range c.Categories {
		out.Categories[k] = v
	}
	return out
}
