// Package io reads company tables and reads and writes session snapshots.
//
// # Input formats
//
// Two tabular formats are accepted, selected by file extension:
//
//   - CSV (.csv): the first row is the header. Header names are trimmed,
//     blank lines are skipped, and rows may be shorter or longer than the
//     header. Missing cells are empty, extra cells are ignored.
//   - JSON (.json): an array of flat objects. Scalar values are converted to
//     strings; nested values are kept as compact JSON. The column list is
//     the sorted union of all object keys.
//
// Anything else fails with errors.ErrCodeInvalidFormat.
//
//	t, err := io.ReadFile("companies.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Column mapping
//
// A [Table] does not know which column holds what. A [Mapping] names the
// columns for company name, category (both required), subcategory and
// logo file name. [SuggestMapping] guesses one from common header names.
// [MapCompanies] applies it:
//
//	m := io.SuggestMapping(t.Columns)
//	companies, skipped, err := io.MapCompanies(t, m)
//
// Rows lacking a required value are skipped and reported in skipped, one
// errors.ErrCodeMissingField entry per row. When every data row is skipped
// the call fails with errors.ErrCodeNoValidCompanies. A header-only table
// yields zero companies and no error.
//
// # Snapshots
//
// A [Document] captures a whole editing session (companies, chart
// customization, logos and any table still waiting for a mapping). Use
// [WriteSnapshot]/[ExportSnapshot] and [ReadSnapshot]/[ImportSnapshot] to
// move it through files; the HTTP session backends store the same JSON.
package io
