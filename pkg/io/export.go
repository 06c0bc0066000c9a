package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/logo"
)

// DocumentVersion is the snapshot schema version written by this package.
const DocumentVersion = 1

// Document is the serialized state of one editing session.
type Document struct {
	Version      int                          `json:"version"`
	Companies    []ecosystem.Company          `json:"companies"`
	Chart        ecosystem.ChartCustomization `json:"chart"`
	Signatures   map[string]string            `json:"signatures,omitempty"`
	Logos        logo.State                   `json:"logos"`
	Pending      *Table                       `json:"pending,omitempty"`
	UploadErrors []string                     `json:"upload_errors,omitempty"`
}

// WriteSnapshot encodes d as indented JSON.
func WriteSnapshot(d Document, w io.Writer) error {
	if d.Version == 0 {
		d.Version = DocumentVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSnapshot writes d to a file at path.
func ExportSnapshot(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSnapshot(d, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot decodes a document. Documents from a newer schema version
// are rejected.
func ReadSnapshot(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot")
	}
	if d.Version > DocumentVersion {
		return Document{}, errors.New(errors.ErrCodeUnsupported, "snapshot version %d is newer than %d", d.Version, DocumentVersion)
	}
	if d.Chart.Categories == nil {
		d.Chart.Categories = make(map[string]ecosystem.CategoryCustomization)
	}
	return d, nil
}

// ImportSnapshot reads a document from the file at path.
func ImportSnapshot(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
