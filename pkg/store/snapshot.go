package store

import (
	"maps"
	"slices"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/logo"
)

// Categories returns the grouped categories with logo references resolved.
func (s *Store) Categories() []ecosystem.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Category returns one category by name.
func (s *Store) Category(name string) (ecosystem.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, true
		}
	}
	return ecosystem.Category{}, false
}

// Companies returns the imported companies in input order.
func (s *Store) Companies() []ecosystem.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.companies)
}

// Chart returns a copy of the chart customization.
func (s *Store) Chart() ecosystem.ChartCustomization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chart.Clone()
}

// Customization returns the customization of one category.
func (s *Store) Customization(name string) (ecosystem.CategoryCustomization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chart.Categories[name]
	return c, ok
}

// UploadErrors returns the messages of the last import.
func (s *Store) UploadErrors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.uploadErrors)
}

// Pending returns the table waiting for a column mapping, if any.
func (s *Store) Pending() *io.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Clamped returns the categories the last layout pulled inside the canvas.
func (s *Store) Clamped() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.clamped)
}

// Unmatched returns logo files no company uses.
func (s *Store) Unmatched() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logos.Unmatched(s.companies)
}

// Logos returns the logo registry.
func (s *Store) Logos() *logo.Registry { return s.logos }

// Engine returns the layout engine.
func (s *Store) Engine() *layout.Engine { return s.engine }

// Empty reports whether the store has no categories to show.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories) == 0
}

// Snapshot captures the whole store as a document.
func (s *Store) Snapshot() io.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return io.Document{
		Version:      io.DocumentVersion,
		Companies:    slices.Clone(s.companies),
		Chart:        s.chart.Clone(),
		Signatures:   maps.Clone(s.signatures),
		Logos:        s.logos.Export(),
		Pending:      s.pending,
		UploadErrors: slices.Clone(s.uploadErrors),
	}
}

// Restore replaces the store content with d. Saved customizations are
// kept; categories whose content differs from the saved signature are
// resized as after an import.
func (s *Store) Restore(d io.Document) {
	s.logos.Import(d.Logos)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = stripRefs(d.Companies)
	s.chart = d.Chart.Clone()
	if s.chart.Orientation == "" {
		s.chart.Orientation = ecosystem.Landscape
	}
	s.signatures = maps.Clone(d.Signatures)
	if s.signatures == nil {
		s.signatures = make(map[string]string)
	}
	s.pending = d.Pending
	s.uploadErrors = slices.Clone(d.UploadErrors)
	s.regroup()

	changed := make(map[string]bool)
	for _, cat := range s.categories {
		if s.signatures[cat.Name] != cat.Signature() {
			changed[cat.Name] = true
		}
	}
	s.relayout(changed, false)
}
