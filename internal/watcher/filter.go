package watcher

import (
	"path/filepath"
	"strings"

	"hbrename/internal/scanner"
)

// DefaultIgnorePatterns returns the patterns of in-progress download names.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.part",
		"*.crdownload", // Chrome partial downloads
		"*.tmp",
		"*.download",
		"*.partial",
		".~*", // Hidden temp files (e.g., .~lock)
	}
}

// FileFilter decides which created files are worth reporting.
type FileFilter struct {
	patterns   []string
	extensions map[string]bool // nil accepts any extension
}

// NewFileFilter creates a FileFilter. Nil patterns mean the defaults. A
// non-empty extensions list restricts reported files to those extensions,
// compared case-insensitively and with or without a leading dot.
func NewFileFilter(patterns, extensions []string) *FileFilter {
	if patterns == nil {
		patterns = DefaultIgnorePatterns()
	}
	f := &FileFilter{patterns: patterns}
	if len(extensions) > 0 {
		f.extensions = make(map[string]bool, len(extensions))
		for _, e := range extensions {
			f.extensions[strings.ToLower(strings.TrimPrefix(e, "."))] = true
		}
	}
	return f
}

// ShouldIgnore reports whether path matches an ignore pattern or has an
// extension outside the accepted set. Only the base name is matched.
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
		// ".tmp" style patterns match as a case-insensitive suffix.
		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}

	if f.extensions != nil {
		_, ext := scanner.SplitName(filename)
		return !f.extensions[strings.ToLower(ext)]
	}
	return false
}

// Patterns returns a copy of the ignore patterns.
func (f *FileFilter) Patterns() []string {
	result := make([]string, len(f.patterns))
	copy(result, f.patterns)
	return result
}
