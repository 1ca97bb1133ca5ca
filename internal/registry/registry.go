// Package registry groups the ebook files of a directory by stem.
//
// A Registry is built once per pass by Scan and handed explicitly to the
// planner and the organizer. Groups keep the order in which the directory
// listing produced them; records inside a group keep the order in which their
// extensions were first seen.
package registry

import (
	"errors"
	"strings"

	"hbrename/internal/metadata"
	"hbrename/internal/normalizer"
	"hbrename/internal/output"
	"hbrename/internal/scanner"
)

// DefaultExtensions is the recognized set when no extension is added.
var DefaultExtensions = []string{"pdf", "epub", "mobi", "prc"}

// FileRecord is one scanned file. It is never modified after Scan.
type FileRecord struct {
	Title        string // "" when absent
	Author       string // "" when absent
	Candidate    string // Sanitized Title; "" iff Title is ""
	OriginalPath string // Absolute path at scan time
	Ext          string // Extension as spelled on disk, without the dot
}

// Group collects the files sharing one stem.
type Group struct {
	Stem    string
	exts    []string
	records map[string]FileRecord
}

func newGroup(stem string) *Group {
	return &Group{Stem: stem, records: make(map[string]FileRecord)}
}

// Extensions returns the lower-case extension keys in insertion order.
func (g *Group) Extensions() []string {
	out := make([]string, len(g.exts))
	copy(out, g.exts)
	return out
}

// Record returns the record stored under ext (case-insensitive).
func (g *Group) Record(ext string) (FileRecord, bool) {
	rec, ok := g.records[strings.ToLower(ext)]
	return rec, ok
}

// Records returns the records in insertion order.
func (g *Group) Records() []FileRecord {
	out := make([]FileRecord, 0, len(g.exts))
	for _, ext := range g.exts {
		out = append(out, g.records[ext])
	}
	return out
}

// Len returns the number of records.
func (g *Group) Len() int {
	return len(g.exts)
}

// Registry is the ordered set of groups found in one directory.
type Registry struct {
	Dir    string
	order  []string
	groups map[string]*Group
}

// New returns an empty registry for dir.
func New(dir string) *Registry {
	return &Registry{Dir: dir, groups: make(map[string]*Group)}
}

// Add inserts rec under stem, creating the group on first use. It returns
// false, leaving the registry unchanged, when the group already holds a
// record for the same lower-case extension.
func (r *Registry) Add(stem string, rec FileRecord) bool {
	g, ok := r.groups[stem]
	if !ok {
		g = newGroup(stem)
		r.groups[stem] = g
		r.order = append(r.order, stem)
	}
	key := strings.ToLower(rec.Ext)
	if _, dup := g.records[key]; dup {
		return false
	}
	g.exts = append(g.exts, key)
	g.records[key] = rec
	return true
}

// Group looks up the group for stem.
func (r *Registry) Group(stem string) (*Group, bool) {
	g, ok := r.groups[stem]
	return g, ok
}

// Groups returns the groups in registry order.
func (r *Registry) Groups() []*Group {
	out := make([]*Group, 0, len(r.order))
	for _, stem := range r.order {
		out = append(out, r.groups[stem])
	}
	return out
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	return len(r.order)
}

// Restrict returns a registry holding only the named stems, in registry
// order. Unknown stems are ignored. Groups are shared, not copied.
func (r *Registry) Restrict(stems []string) *Registry {
	want := make(map[string]bool, len(stems))
	for _, s := range stems {
		want[s] = true
	}
	out := New(r.Dir)
	for _, stem := range r.order {
		if want[stem] {
			out.order = append(out.order, stem)
			out.groups[stem] = r.groups[stem]
		}
	}
	return out
}

// Options configures Scan.
type Options struct {
	// Extensions is the recognized set, without dots. Nil means
	// DefaultExtensions.
	Extensions []string
	// Source extracts metadata. Nil means metadata.NewRegistry().
	Source      metadata.Source
	Out         *output.Output
	ScanOptions scanner.ScanOptions
}

// Scan lists dir (non-recursively) and groups every recognized file by stem.
//
// Names containing a space are skipped. Metadata is read for every other
// file, but only files with a recognized extension are stored. A file whose
// metadata cannot be read is kept with an empty title and author. Only errors about dir itself are returned.
func Scan(dir string, opts Options) (*Registry, error) {
	out := opts.Out
	if out == nil {
		out = output.Discard()
	}
	source := opts.Source
	if source == nil {
		source = metadata.NewRegistry()
	}
	exts := opts.Extensions
	if exts == nil {
		exts = DefaultExtensions
	}
	recognized := make(map[string]bool, len(exts))
	for _, e := range exts {
		recognized[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	scanOpts := opts.ScanOptions
	if scanOpts.SymlinkPolicy == "" {
		scanOpts = scanner.DefaultScanOptions()
	}

	entries, err := scanner.ScanWithOptions(dir, scanOpts)
	if err != nil {
		return nil, err
	}

	reg := New(dir)
	out.StartProgress("Reading metadata", len(entries))
	defer out.EndProgress()

	for i, entry := range entries {
		out.UpdateProgress(i + 1)

		if strings.Contains(entry.Name, " ") {
			out.Verbose("Skipping %s as doesn't seem a HB book name.", entry.Name)
			continue
		}

		stem, ext := scanner.SplitName(entry.Name)
		md := extract(out, source, entry.FullPath, ext)
		if ext == "" || !recognized[strings.ToLower(ext)] {
			out.Verbose("Ignoring %s: extension not recognized", entry.Name)
			continue
		}

		rec := FileRecord{
			OriginalPath: entry.FullPath,
			Ext:          ext,
			Title:        md.Title,
			Author:       md.Author,
			Candidate:    normalizer.Sanitize(md.Title),
		}
		if !reg.Add(stem, rec) {
			out.Verbose("Ignoring %s: %s already has a .%s file", entry.Name, stem, strings.ToLower(ext))
			continue
		}
		out.Verbose("Found %s: title=%q author=%q", entry.Name, rec.Title, rec.Author)
	}

	return reg, nil
}

// extract reads path's metadata, logging failures and per-field issues.
func extract(out *output.Output, source metadata.Source, path, ext string) metadata.Metadata {
	md, err := source.Extract(path, ext)
	if err != nil {
		var extractErr *metadata.ExtractError
		if errors.As(err, &extractErr) {
			out.Verbose("Error reading metadata: %v", extractErr)
		} else {
			out.Verbose("Error reading metadata from %s: %v", path, err)
		}
		return metadata.Metadata{}
	}
	for _, issue := range md.Issues {
		out.Verbose("Error reading %s from: %s", issue.Field, path)
		out.Verbose("  %s", issue)
	}
	return md
}
