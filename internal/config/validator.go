package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string // Config field with issue (e.g., "extensions[2]")
	Message  string
	Severity ValidationSeverity
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// Validate returns a ConfigError describing every error ValidateConfig finds.
func (c *Configuration) Validate() error {
	result := ValidateConfig(c)
	if result.Valid {
		return nil
	}
	msgs := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return &ConfigError{Type: ValidationError, Message: strings.Join(msgs, "; ")}
}

// ValidateConfig checks the configuration and returns all findings.
func ValidateConfig(cfg *Configuration) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	var findings []ConfigValidationError
	findings = append(findings, ValidatePaths(cfg)...)
	findings = append(findings, ValidateExtensions(cfg)...)
	findings = append(findings, ValidateWatch(cfg)...)

	for _, f := range findings {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidatePaths checks the target directory and the journal directory.
func ValidatePaths(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError

	switch info, err := os.Stat(cfg.Directory); {
	case cfg.Directory == "":
		errs = append(errs, ConfigValidationError{"directory", "a target directory is required", SeverityError})
	case os.IsNotExist(err):
		errs = append(errs, ConfigValidationError{"directory", "directory does not exist: " + cfg.Directory, SeverityError})
	case os.IsPermission(err):
		errs = append(errs, ConfigValidationError{"directory", "directory is not accessible: " + cfg.Directory, SeverityError})
	case err != nil:
		errs = append(errs, ConfigValidationError{"directory", "error accessing directory: " + err.Error(), SeverityError})
	case !info.IsDir():
		errs = append(errs, ConfigValidationError{"directory", "path is not a directory: " + cfg.Directory, SeverityError})
	}

	if cfg.JournalDir == "" {
		return errs
	}
	info, err := os.Stat(cfg.JournalDir)
	switch {
	case err == nil && !info.IsDir():
		errs = append(errs, ConfigValidationError{"journal", "path exists but is not a directory: " + cfg.JournalDir, SeverityError})
	case err == nil:
	case !os.IsNotExist(err):
		errs = append(errs, ConfigValidationError{"journal", "error accessing directory: " + err.Error(), SeverityError})
	default:
		// The journal directory is created on first use; its parent must exist.
		parent := filepath.Dir(cfg.JournalDir)
		if pinfo, perr := os.Stat(parent); perr != nil || !pinfo.IsDir() {
			errs = append(errs, ConfigValidationError{"journal", "parent directory does not exist: " + parent, SeverityError})
		}
	}
	return errs
}

// ValidateExtensions checks that extensions are non-empty and contain no
// separators or spaces.
func ValidateExtensions(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError
	if len(cfg.Extensions) == 0 {
		errs = append(errs, ConfigValidationError{"extensions", "at least one extension is required", SeverityError})
	}
	for i, ext := range cfg.Extensions {
		field := fmt.Sprintf("extensions[%d]", i)
		switch {
		case ext == "":
			errs = append(errs, ConfigValidationError{field, "extension cannot be empty", SeverityError})
		case strings.ContainsAny(ext, `/\ .`):
			errs = append(errs, ConfigValidationError{field, fmt.Sprintf("invalid extension %q", ext), SeverityError})
		}
	}
	return errs
}

// ValidateWatch checks the watch timings and ignore patterns.
func ValidateWatch(cfg *Configuration) []ConfigValidationError {
	var errs []ConfigValidationError
	w := cfg.Watch
	if w.DebounceSeconds < 0 {
		errs = append(errs, ConfigValidationError{"watch.debounceSeconds", "must be a non-negative integer", SeverityError})
	}
	if w.StableThresholdMs < 0 {
		errs = append(errs, ConfigValidationError{"watch.stableThresholdMs", "must be a non-negative integer", SeverityError})
	}
	for i, p := range w.IgnorePatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			errs = append(errs, ConfigValidationError{fmt.Sprintf("watch.ignorePatterns[%d]", i), fmt.Sprintf("invalid pattern %q", p), SeverityError})
		}
	}
	if w.Enabled && cfg.DryRun {
		errs = append(errs, ConfigValidationError{"watch.enabled", "dry run with watch mode only previews each new group", SeverityWarning})
	}
	return errs
}
