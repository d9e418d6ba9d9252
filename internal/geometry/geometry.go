// Package geometry loads the GDML detector description consumed by a run.
// The loader is a boundary: it reads the document, extracts identifying
// attributes, and keeps the raw bytes for archival. No geometry construction
// happens here.
package geometry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Document is one loaded GDML detector description. Raw holds the exact
// bytes read from disk; finalization archives them unchanged.
type Document struct {
	Path    string
	Raw     []byte
	Version string
	Schema  string
	Digest  string
}

// Size returns the document length in bytes.
func (d *Document) Size() int64 { return int64(len(d.Raw)) }

type gdmlRoot struct {
	XMLName xml.Name `xml:"gdml"`
	Version string   `xml:"version,attr"`
	Schema  string   `xml:"noNamespaceSchemaLocation,attr"`
}

// Load reads a GDML file and returns the parsed document. The path is
// resolved to an absolute path so later diagnostics name the real file.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve geometry path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read geometry file: %w", err)
	}

	var root gdmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse geometry file %s: %w", abs, err)
	}

	sum := sha256.Sum256(data)
	return &Document{
		Path:    abs,
		Raw:     data,
		Version: root.Version,
		Schema:  root.Schema,
		Digest:  hex.EncodeToString(sum[:]),
	}, nil
}
