// Package store holds the state of one ecosystem map editing session.
//
// A [Store] owns the imported companies, the logo registry, the grouped
// categories and the chart customization. Every mutation goes through a
// method, each of which decides whether the change is cosmetic (colors,
// titles, logos) or content-bearing (companies, size tiers). Only
// content-bearing changes run the layout engine, and they only resize the
// categories whose content actually changed, tracked through per-category
// signatures.
//
// Stores are independent values; the CLI creates one per run and the HTTP
// server one per session.
package store

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/layout"
	"github.com/matzehuels/ecomap/pkg/logo"
)

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	engine *layout.Engine
	logos  *logo.Registry
	logger *log.Logger

	companies    []ecosystem.Company
	categories   []ecosystem.Category
	chart        ecosystem.ChartCustomization
	signatures   map[string]string
	pending      *io.Table
	uploadErrors []string
	clamped      []string
}

// Option configures a [Store].
type Option func(*Store)

// WithEngine sets the layout engine.
func WithEngine(e *layout.Engine) Option { return func(s *Store) { s.engine = e } }

// WithLogger sets the logger used for layout diagnostics.
func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// WithChart sets the initial chart customization.
func WithChart(c ecosystem.ChartCustomization) Option {
	return func(s *Store) { s.chart = c.Clone() }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		engine:     layout.New(),
		logos:      logo.NewRegistry(),
		chart:      ecosystem.DefaultChart(),
		signatures: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Change summarizes what a content update did to the layout.
type Change struct {
	Changed []string // categories that were new or changed content
	Removed []string // categories that no longer exist
	Clamped []string // categories pulled back inside the canvas
}

// SetCompanies replaces the company list, regroups and lays out the map.
//
// Categories that are new or whose subcategory counts changed are resized;
// the rest keep their manual edits. Customizations of categories that
// disappeared are dropped.
func (s *Store) SetCompanies(companies []ecosystem.Company) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies = stripRefs(companies)
	s.regroup()

	var ch Change
	current := make(map[string]bool, len(s.categories))
	changed := make(map[string]bool)
	for _, cat := range s.categories {
		current[cat.Name] = true
		if sig := cat.Signature(); s.signatures[cat.Name] != sig {
			changed[cat.Name] = true
			ch.Changed = append(ch.Changed, cat.Name)
		}
	}
	for name := range s.signatures {
		if !current[name] {
			ch.Removed = append(ch.Removed, name)
		}
	}
	for name := range s.chart.Categories {
		if !current[name] {
			delete(s.chart.Categories, name)
		}
	}

	s.relayout(changed, false)
	ch.Clamped = s.clamped
	s.logger.Debug("companies updated",
		"companies", len(s.companies),
		"categories", len(s.categories),
		"changed", len(ch.Changed),
		"removed", len(ch.Removed))
	return ch
}

// LoadTable stores a parsed table until a column mapping is chosen.
func (s *Store) LoadTable(t *io.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = t
	s.uploadErrors = nil
}

// ApplyMapping maps the pending table into companies and applies them.
// Skipped rows are kept as upload errors. When the mapping fails the
// current companies are left untouched.
func (s *Store) ApplyMapping(m io.Mapping) (Change, error) {
	s.mu.RLock()
	t := s.pending
	s.mu.RUnlock()
	if t == nil {
		return Change{}, errors.New(errors.ErrCodeInvalidInput, "no table uploaded")
	}
	return s.Import(t, m)
}

// Import maps t with m and applies the result. It clears the pending table.
func (s *Store) Import(t *io.Table, m io.Mapping) (Change, error) {
	companies, skipped, err := io.MapCompanies(t, m)

	s.mu.Lock()
	s.uploadErrors = skipped.Messages()
	if err != nil {
		if len(s.uploadErrors) == 0 {
			s.uploadErrors = []string{errors.UserMessage(err)}
		}
		s.mu.Unlock()
		return Change{}, err
	}
	s.pending = nil
	s.mu.Unlock()

	return s.SetCompanies(companies), nil
}

// AddLogo registers a logo and refreshes logo references. Positions are
// never touched.
func (s *Store) AddLogo(filename string, data []byte) (string, error) {
	ref, revoked, err := s.logos.Add(filename, data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regroup()
	if revoked != "" {
		s.logger.Debug("logo replaced", "file", filename, "revoked", revoked)
	}
	return ref, nil
}

// RemoveLogo deletes a logo and refreshes logo references.
func (s *Store) RemoveLogo(filename string) error {
	if _, err := s.logos.Remove(filename); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regroup()
	return nil
}

// AssociateLogo links a logo to a company by ID.
func (s *Store) AssociateLogo(filename, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, c := range s.companies {
		if c.ID == companyID {
			found = true
			break
		}
	}
	if !found {
		return errors.New(errors.ErrCodeNotFound, "company not found: %s", companyID)
	}
	if err := s.logos.Associate(filename, companyID); err != nil {
		return err
	}
	s.regroup()
	return nil
}

// Relayout discards manual positions, sizes and column counts and lays out
// every category from scratch.
func (s *Store) Relayout() Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relayout(nil, true)
	return Change{Clamped: s.clamped}
}

// regroup rebuilds categories from companies with current logo refs.
// Callers hold the write lock.
func (s *Store) regroup() {
	s.categories = ecosystem.Group(s.logos.Apply(s.companies))
}

// relayout runs the engine and records new signatures.
// Callers hold the write lock.
func (s *Store) relayout(changed map[string]bool, force bool) {
	res := s.engine.Layout(layout.Request{
		Categories: s.categories,
		Current:    s.chart.Categories,
		Changed:    changed,
		Force:      force,
	})
	s.chart.Categories = res.Categories
	s.clamped = res.Clamped

	s.signatures = make(map[string]string, len(s.categories))
	for _, cat := range s.categories {
		s.signatures[cat.Name] = cat.Signature()
	}
	if len(res.Clamped) > 0 {
		s.logger.Warn("categories clamped to canvas", "categories", res.Clamped)
	}
}

func stripRefs(in []ecosystem.Company) []ecosystem.Company {
	out := make([]ecosystem.Company, len(in))
	for i, c := range in {
		c.LogoRef = ""
		out[i] = c
	}
	return out
}
