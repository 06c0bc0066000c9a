package ecosystem

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns the case-insensitive, locale-aware name comparator.
// Collators are not safe for concurrent use, so each call gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// compareNames orders two names case-insensitively using the same collation
// as [Group].
func compareNames(a, b string) int {
	return newCollator().CompareString(a, b)
}

// GroupMap buckets companies as category → subcategory → companies.
// Bucket contents are sorted by name; duplicate names are all retained.
func GroupMap(companies []Company) map[string]map[string][]Company {
	out := make(map[string]map[string][]Company)
	for _, c := range companies {
		subs, ok := out[c.Category]
		if !ok {
			subs = make(map[string][]Company)
			out[c.Category] = subs
		}
		name := c.SubcategoryName()
		subs[name] = append(subs[name], c)
	}

	col := newCollator()
	for _, subs := range out {
		for name, list := range subs {
			sortCompanies(col, list)
			subs[name] = list
		}
	}
	return out
}

// Group converts validated companies into ordered categories.
//
// Categories and subcategories are sorted by name; companies inside each
// subcategory and in the flattened Companies list are sorted
// case-insensitively. Ties keep input order, so the same input always yields
// the same structure. Colors come from [ColorFromString].
func Group(companies []Company) []Category {
	grouped := GroupMap(companies)
	col := newCollator()

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sortNames(col, names)

	cats := make([]Category, 0, len(names))
	for _, name := range names {
		subs := grouped[name]
		subNames := make([]string, 0, len(subs))
		for s := range subs {
			subNames = append(subNames, s)
		}
		sortNames(col, subNames)

		cat := Category{Name: name, Color: ColorFromString(name)}
		for _, s := range subNames {
			cat.Subcategories = append(cat.Subcategories, Subcategory{Name: s, Companies: subs[s]})
		}

		// Flattened list re-sorted from input order so ties stay stable.
		for _, c := range companies {
			if c.Category == name {
				cat.Companies = append(cat.Companies, c)
			}
		}
		sortCompanies(col, cat.Companies)
		cats = append(cats, cat)
	}
	return cats
}

func sortCompanies(col *collate.Collator, list []Company) {
	slices.SortStableFunc(list, func(a, b Company) int {
		return col.CompareString(a.Name, b.Name)
	})
}

// sortNames orders map keys, falling back to byte order when the collator
// considers two distinct keys equal ("Infra" vs "infra").
func sortNames(col *collate.Collator, names []string) {
	slices.SortFunc(names, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
}
