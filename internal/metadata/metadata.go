// Package metadata reads a human-readable title and author from ebook files.
//
// Each container format has its own Extractor. A Registry selects the
// extractor by lower-case extension, so supporting a new format means
// registering one more implementation rather than adding a branch.
//
// Failures are isolated at two levels. A field that cannot be read leaves
// that field empty and is reported as an Issue, while the other field is
// still extracted. A document that cannot be opened at all returns an
// *ExtractError. Callers decide what to do with it; the book registry
// downgrades the file to "no metadata" and keeps scanning.
package metadata

import (
	"fmt"
	"strings"
)

// Metadata is the result of reading one file. Empty strings mean absent.
type Metadata struct {
	Title  string
	Author string
	Issues []Issue // Field-level read problems, for diagnostics
}

// Issue describes a field that was present but could not be read.
type Issue struct {
	Field string // "title" or "author"
	Raw   string // Raw value as found in the document, if any
	Err   error
}

func (i Issue) String() string {
	if i.Raw != "" {
		return fmt.Sprintf("%s: %v (raw %q)", i.Field, i.Err, i.Raw)
	}
	return fmt.Sprintf("%s: %v", i.Field, i.Err)
}

// Extractor reads metadata from a file of one format.
type Extractor interface {
	Extract(path string) (Metadata, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string) (Metadata, error)

// Extract calls f(path).
func (f ExtractorFunc) Extract(path string) (Metadata, error) {
	return f(path)
}

// Source is anything that can extract metadata given a path and extension.
// *Registry and *Cache both satisfy it.
type Source interface {
	Extract(path, ext string) (Metadata, error)
}

// ExtractError reports a document that could not be opened or parsed.
type ExtractError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("cannot read %s metadata from %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Registry maps lower-case extensions to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the built-in strategies: PDF, EPUB and
// the PalmDB family (mobi, prc, azw, azw3).
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register("pdf", PDFExtractor{})
	r.Register("epub", EPUBExtractor{})
	mobi := MOBIExtractor{}
	for _, ext := range []string{"mobi", "prc", "azw", "azw3"} {
		r.Register(ext, mobi)
	}
	return r
}

// Register installs e for ext, replacing any previous extractor.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[normalizeExt(ext)] = e
}

// Lookup returns the extractor for ext.
func (r *Registry) Lookup(ext string) (Extractor, bool) {
	e, ok := r.extractors[normalizeExt(ext)]
	return e, ok
}

// Extract dispatches to the extractor registered for ext. An extension with
// no extractor yields empty Metadata without touching the file.
func (r *Registry) Extract(path, ext string) (Metadata, error) {
	e, ok := r.Lookup(ext)
	if !ok {
		return Metadata{}, nil
	}
	return e.Extract(path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
