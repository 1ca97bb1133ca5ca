package organizer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()

	nonExistent := filepath.Join(tempDir, "nonexistent.pdf")
	if FileExists(nonExistent) {
		t.Error("FileExists returned true for non-existent file")
	}

	existingFile := filepath.Join(tempDir, "existing.pdf")
	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if !FileExists(existingFile) {
		t.Error("FileExists returned false for existing file")
	}

	// A dangling symlink still occupies the name.
	dangling := filepath.Join(tempDir, "dangling.pdf")
	if err := os.Symlink(nonExistent, dangling); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if !FileExists(dangling) {
		t.Error("FileExists returned false for dangling symlink")
	}
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		base, ext string
		attempt   int
		want      string
	}{
		{"My Book", "pdf", 0, "My Book.pdf"},
		{"My Book", "pdf", 1, "My Book_1.pdf"},
		{"My Book", "epub", 12, "My Book_12.epub"},
		{"Bare", "", 0, "Bare"},
		{"Bare", "", 3, "Bare_3"},
	}
	for _, tt := range tests {
		if got := TargetName(tt.base, tt.ext, tt.attempt); got != tt.want {
			t.Errorf("TargetName(%q, %q, %d) = %q, want %q", tt.base, tt.ext, tt.attempt, got, tt.want)
		}
	}
}
