package io

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/ecomap/pkg/errors"
)

// Format identifies the source format of a table.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Table is parsed tabular input waiting for a column mapping.
type Table struct {
	Format  Format              `json:"format"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// FormatFromName returns the format for a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported file type %q: expected .csv or .json", filepath.Ext(name))
}

// Read parses r in the format implied by name's extension.
func Read(name string, r io.Reader) (*Table, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return ReadJSON(r)
	}
	return ReadCSV(r)
}

// ReadFile opens path and parses it with [Read].
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(path, f)
}

// ReadCSV parses a CSV table whose first row is the header.
//
// Header cells are trimmed and a leading byte order mark is dropped. The
// first of several columns with the same name wins. An empty input yields
// an empty table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := &Table{Format: FormatCSV}
	header, err := cr.Read()
	if stderrors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse CSV header")
	}

	index := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		index[i] = h
		t.Columns = append(t.Columns, h)
	}

	for {
		rec, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse CSV")
		}
		row := make(map[string]string, len(t.Columns))
		for i, v := range rec {
			if i < len(index) && index[i] != "" {
				row[index[i]] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadJSON parses a JSON array of flat objects.
func ReadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "JSON data must be an array of company objects")
	}

	t := &Table{Format: FormatJSON}
	seen := make(map[string]bool)
	for i, item := range raw {
		var obj map[string]any
		d := json.NewDecoder(bytes.NewReader(item))
		d.UseNumber()
		if err := d.Decode(&obj); err != nil || obj == nil {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "item %d: expected an object", i+1)
		}
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			s, ok := stringify(v)
			if !ok {
				continue
			}
			row[k] = s
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	slices.Sort(t.Columns)
	return t, nil
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
