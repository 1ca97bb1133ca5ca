package organizer

import (
	"os"
	"strconv"
)

// MaxAttempts bounds the suffix search for one file.
const MaxAttempts = 10000

// FileExists checks if anything exists at the given path. Dangling symlinks
// count as existing.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// TargetName builds "<base><suffix>.<ext>" where the suffix is empty for
// attempt 0 and "_<attempt>" afterwards. An empty ext yields no dot.
//
// Examples:
//   - TargetName("My Book", "pdf", 0) -> "My Book.pdf"
//   - TargetName("My Book", "pdf", 2) -> "My Book_2.pdf"
func TargetName(base, ext string, attempt int) string {
	name := base
	if attempt > 0 {
		name += "_" + strconv.Itoa(attempt)
	}
	if ext != "" {
		name += "." + ext
	}
	return name
}
