package io

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
)

// Mapping names the table columns that feed each company field.
// CompanyName and Category are required.
type Mapping struct {
	CompanyName  string `toml:"company_name" json:"company_name"`
	Category     string `toml:"category" json:"category"`
	Subcategory  string `toml:"subcategory" json:"subcategory,omitempty"`
	LogoFilename string `toml:"logo_filename" json:"logo_filename,omitempty"`
}

// Complete reports whether both required columns are chosen.
func (m Mapping) Complete() bool {
	return m.CompanyName != "" && m.Category != ""
}

// Or fills every unset field of m from fallback.
func (m Mapping) Or(fallback Mapping) Mapping {
	pick := func(v, fb string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return fb
	}
	return Mapping{
		CompanyName:  pick(m.CompanyName, fallback.CompanyName),
		Category:     pick(m.Category, fallback.Category),
		Subcategory:  pick(m.Subcategory, fallback.Subcategory),
		LogoFilename: pick(m.LogoFilename, fallback.LogoFilename),
	}
}

// Validate checks that the required columns are set and that every chosen
// column exists. An empty column list skips the existence check.
func (m Mapping) Validate(columns []string) error {
	if m.CompanyName == "" {
		return errors.New(errors.ErrCodeMappingIncomplete, "company name column is required")
	}
	if m.Category == "" {
		return errors.New(errors.ErrCodeMappingIncomplete, "category column is required")
	}
	if len(columns) == 0 {
		return nil
	}
	for _, c := range []string{m.CompanyName, m.Category, m.Subcategory, m.LogoFilename} {
		if c != "" && !slices.Contains(columns, c) {
			return errors.New(errors.ErrCodeMappingIncomplete, "unknown column %q", c)
		}
	}
	return nil
}

var aliases = struct {
	name, category, subcategory, logo []string
}{
	name:        []string{"company_name", "company", "name", "company name"},
	category:    []string{"category", "group", "segment"},
	subcategory: []string{"subcategory", "sub_category", "sub-category", "subgroup"},
	logo:        []string{"logo_filename", "logo", "logo_file", "logo filename"},
}

// SuggestMapping guesses a mapping from header names, ignoring case.
// Fields without a plausible column stay empty.
func SuggestMapping(columns []string) Mapping {
	pick := func(names []string) string {
		for _, want := range names {
			for _, c := range columns {
				if strings.EqualFold(strings.TrimSpace(c), want) {
					return c
				}
			}
		}
		return ""
	}
	return Mapping{
		CompanyName:  pick(aliases.name),
		Category:     pick(aliases.category),
		Subcategory:  pick(aliases.subcategory),
		LogoFilename: pick(aliases.logo),
	}
}

// MapCompanies converts table rows into companies.
//
// Rows without a company name or category are skipped; skipped holds one
// MISSING_FIELD error per such row. If the table has rows but none
// survives, err is NO_VALID_COMPANIES.
func MapCompanies(t *Table, m Mapping) (companies []ecosystem.Company, skipped errors.List, err error) {
	if t == nil {
		return nil, nil, nil
	}
	if err := m.Validate(t.Columns); err != nil {
		return nil, nil, err
	}

	for i, row := range t.Rows {
		name := strings.TrimSpace(row[m.CompanyName])
		category := strings.TrimSpace(row[m.Category])
		if name == "" || category == "" {
			skipped = append(skipped, errors.New(errors.ErrCodeMissingField,
				"%s: Missing required fields (%s, %s)", rowLabel(t.Format, i), m.CompanyName, m.Category))
			continue
		}
		var sub, logoFile string
		if m.Subcategory != "" {
			sub = row[m.Subcategory]
		}
		if m.LogoFilename != "" {
			logoFile = row[m.LogoFilename]
		}
		companies = append(companies, ecosystem.NewCompany(name, category, sub, logoFile, i))
	}

	if len(t.Rows) > 0 && len(companies) == 0 {
		return nil, skipped, errors.New(errors.ErrCodeNoValidCompanies, "no valid companies in %d rows", len(t.Rows))
	}
	return companies, skipped, nil
}

func rowLabel(f Format, i int) string {
	if f == FormatJSON {
		return fmt.Sprintf("Item %d", i+1)
	}
	// header is row 1
	return fmt.Sprintf("Row %d", i+2)
}

// Preview returns up to n rows as cells in column order, for showing the
// table while a mapping is chosen.
func Preview(t *Table, n int) [][]string {
	if t == nil || n <= 0 {
		return nil
	}
	rows := t.Rows[:min(n, len(t.Rows))]
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = row[c]
		}
		out[i] = cells
	}
	return out
}
