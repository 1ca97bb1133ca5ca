// Package organizer applies a RenameMap to disk. Every sibling file of a
// group is renamed in place to the chosen base name with its own extension,
// and an existing file is never overwritten.
package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hbrename/internal/output"
	"hbrename/internal/registry"
)

// MoveErrorType represents the type of move error.
type MoveErrorType string

const (
	// SourceNotFound indicates the source file does not exist.
	SourceNotFound MoveErrorType = "SOURCE_NOT_FOUND"
	// DestinationExists indicates no free suffixed name was found.
	DestinationExists MoveErrorType = "DESTINATION_EXISTS"
	// PermissionDenied indicates insufficient permissions for the operation.
	PermissionDenied MoveErrorType = "PERMISSION_DENIED"
	// RenameFailed covers every other rename failure (cross-device, I/O).
	RenameFailed MoveErrorType = "RENAME_FAILED"
)

// MoveError represents an error that occurred while renaming one file.
type MoveError struct {
	Type MoveErrorType
	Path string
	Err  error
}

func (e *MoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Outcome is what happened to one file.
type Outcome string

const (
	OutcomeRenamed      Outcome = "RENAMED"
	OutcomePlanned      Outcome = "PLANNED" // dry run
	OutcomeAlreadyNamed Outcome = "ALREADY_NAMED"
	OutcomeMissing      Outcome = "MISSING"
	OutcomeFailed       Outcome = "FAILED"
)

// FileResult describes one file of a renamed group.
type FileResult struct {
	Stem            string
	SourcePath      string
	DestinationPath string // Empty unless renamed or planned
	Attempt         int    // Suffix number used; 0 means no suffix
	Outcome         Outcome
	Err             error
}

// Result collects the outcome of Apply.
type Result struct {
	Files         []FileResult
	BooksNotFound []string
}

// Count returns the number of files with outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Journal receives every rename decision. Write failures are reported and
// do not stop Apply.
type Journal interface {
	RecordRename(source, destination string) error
	RecordSkip(path, reason string) error
	RecordError(path, operation string, err error) error
}

// Options configures Apply.
type Options struct {
	DryRun  bool
	Journal Journal // nil disables journaling
	Out     *output.Output
}

// Apply renames the files of every group named in renames, in map order.
//
// Each file goes to "<name>.<ext>" in its own directory. When that name is
// taken the suffixes _1, _2, ... are tried in turn. The mapping is printed
// before each attempt. Missing groups and missing files are reported and
// skipped. With DryRun set, the final mapping of each file is printed and
// nothing on disk changes.
func Apply(reg *registry.Registry, renames *registry.RenameMap, opts Options) *Result {
	out := opts.Out
	if out == nil {
		out = output.Discard()
	}
	result := &Result{}
	planned := make(map[string]bool)

	for _, stem := range renames.Stems() {
		name, _ := renames.Get(stem)
		group, ok := reg.Group(stem)
		if !ok {
			out.Info("Book not found %s", stem)
			result.BooksNotFound = append(result.BooksNotFound, stem)
			record(opts, out, func(j Journal) error { return j.RecordSkip(stem, "BOOK_NOT_FOUND") })
			continue
		}

		for _, rec := range group.Records() {
			fr := renameOne(stem, rec, name, opts, planned, out)
			result.Files = append(result.Files, fr)
			journalResult(opts, out, fr)
		}
	}
	return result
}

func renameOne(stem string, rec registry.FileRecord, name string, opts Options, planned map[string]bool, out *output.Output) FileResult {
	src := rec.OriginalPath
	fr := FileResult{Stem: stem, SourcePath: src}

	if _, err := os.Lstat(src); err != nil {
		return missingOrFailed(fr, err, out)
	}

	dir := filepath.Dir(src)
	for n := 0; n < MaxAttempts; n++ {
		dst := filepath.Join(dir, TargetName(name, rec.Ext, n))
		if dst == src {
			out.Info("%s is already named %s", src, filepath.Base(dst))
			fr.Outcome = OutcomeAlreadyNamed
			return fr
		}

		if opts.DryRun {
			if planned[dst] || FileExists(dst) {
				continue
			}
			planned[dst] = true
			out.Info("%s -> %s", src, dst)
			fr.DestinationPath, fr.Attempt, fr.Outcome = dst, n, OutcomePlanned
			return fr
		}

		out.Info("%s -> %s", src, dst)
		err := RenameNoReplace(src, dst)
		if err == nil {
			fr.DestinationPath, fr.Attempt, fr.Outcome = dst, n, OutcomeRenamed
			return fr
		}
		if IsExist(err) {
			continue
		}
		return missingOrFailed(fr, err, out)
	}

	fr.Outcome = OutcomeFailed
	fr.Err = &MoveError{Type: DestinationExists, Path: src, Err: fmt.Errorf("no free name after %d attempts", MaxAttempts)}
	out.Info("Error renaming %s: %v", src, fr.Err)
	return fr
}

func missingOrFailed(fr FileResult, err error, out *output.Output) FileResult {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		out.Info("File not found: %s", fr.SourcePath)
		fr.Outcome = OutcomeMissing
		fr.Err = &MoveError{Type: SourceNotFound, Path: fr.SourcePath, Err: err}
		return fr
	case errors.Is(err, fs.ErrPermission):
		fr.Err = &MoveError{Type: PermissionDenied, Path: fr.SourcePath, Err: err}
	default:
		fr.Err = &MoveError{Type: RenameFailed, Path: fr.SourcePath, Err: err}
	}
	fr.Outcome = OutcomeFailed
	out.Info("Error renaming %s: %v", fr.SourcePath, err)
	return fr
}

func journalResult(opts Options, out *output.Output, fr FileResult) {
	if opts.DryRun {
		return
	}
	switch fr.Outcome {
	case OutcomeRenamed:
		record(opts, out, func(j Journal) error { return j.RecordRename(fr.SourcePath, fr.DestinationPath) })
	case OutcomeAlreadyNamed:
		record(opts, out, func(j Journal) error { return j.RecordSkip(fr.SourcePath, string(OutcomeAlreadyNamed)) })
	case OutcomeMissing:
		record(opts, out, func(j Journal) error { return j.RecordSkip(fr.SourcePath, string(SourceNotFound)) })
	case OutcomeFailed:
		record(opts, out, func(j Journal) error { return j.RecordError(fr.SourcePath, "rename", fr.Err) })
	}
}

func record(opts Options, out *output.Output, fn func(Journal) error) {
	if opts.Journal == nil || opts.DryRun {
		return
	}
	if err := fn(opts.Journal); err != nil {
		out.Error("Warning: failed to write journal: %v", err)
	}
}
