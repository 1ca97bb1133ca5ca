// Package config assembles hbrename's settings from command-line flags and
// an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hbrename/internal/registry"
	"hbrename/internal/watcher"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidYAML     ConfigErrorType = "INVALID_YAML"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred while building the configuration.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		if e.Message != "" {
			return fmt.Sprintf("cannot read configuration file %s: %s", e.Path, e.Message)
		}
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidYAML:
		return fmt.Sprintf("invalid YAML in configuration file %s: %s", e.Path, e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// WatchSettings tune watch mode.
type WatchSettings struct {
	Enabled           bool     `yaml:"enabled"`
	DebounceSeconds   int      `yaml:"debounceSeconds"`
	StableThresholdMs int      `yaml:"stableThresholdMs"`
	IgnorePatterns    []string `yaml:"ignorePatterns"`
}

// Configuration holds all settings for one hbrename invocation.
type Configuration struct {
	Directory  string        `yaml:"directory"`
	Verbose    bool          `yaml:"verbose"`
	Extensions []string      `yaml:"extensions"` // Recognized extensions, lower-case, no dot
	DryRun     bool          `yaml:"dryRun"`
	JournalDir string        `yaml:"journal"` // Empty disables the journal
	Watch      WatchSettings `yaml:"watch"`
}

// DefaultConfiguration returns the settings used when no flag or file says
// otherwise.
func DefaultConfiguration() *Configuration {
	d := watcher.DefaultWatchConfig()
	return &Configuration{
		Extensions: NormalizeExtensions(registry.DefaultExtensions),
		Watch: WatchSettings{
			DebounceSeconds:   d.DebounceSeconds,
			StableThresholdMs: d.StableThresholdMs,
			IgnorePatterns:    d.IgnorePatterns,
		},
	}
}

// Flags carries the values given on the command line. Zero values mean
// "not given".
type Flags struct {
	Directory  string
	Verbose    bool
	Extensions []string
	DryRun     bool
	JournalDir string
	Watch      bool
}

// LoadFile reads a YAML configuration file. Unknown keys are rejected. An
// empty file yields an empty Configuration. Relative paths in the file are
// resolved against the file's directory.
func LoadFile(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: filePath, Message: err.Error()}
	}

	var cfg Configuration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Type: InvalidYAML, Path: filePath, Message: err.Error()}
	}

	base := filepath.Dir(filePath)
	cfg.Directory = resolve(base, cfg.Directory)
	cfg.JournalDir = resolve(base, cfg.JournalDir)
	return &cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Build merges defaults, the optional file at configPath and flags, then
// validates the result. Flags win over the file. Extensions from the
// defaults, the file and the flags are unioned. Boolean flags can only turn
// a setting on.
func Build(flags Flags, configPath string) (*Configuration, error) {
	cfg := DefaultConfiguration()

	if configPath != "" {
		file, err := LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg.merge(file)
	}

	if flags.Directory != "" {
		cfg.Directory = flags.Directory
	}
	if flags.JournalDir != "" {
		cfg.JournalDir = flags.JournalDir
	}
	cfg.Verbose = cfg.Verbose || flags.Verbose
	cfg.DryRun = cfg.DryRun || flags.DryRun
	cfg.Watch.Enabled = cfg.Watch.Enabled || flags.Watch
	cfg.Extensions = NormalizeExtensions(append(cfg.Extensions, flags.Extensions...))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge lays the set fields of file over c.
func (c *Configuration) merge(file *Configuration) {
	if file.Directory != "" {
		c.Directory = file.Directory
	}
	if file.JournalDir != "" {
		c.JournalDir = file.JournalDir
	}
	c.Verbose = c.Verbose || file.Verbose
	c.DryRun = c.DryRun || file.DryRun
	c.Extensions = NormalizeExtensions(append(c.Extensions, file.Extensions...))

	c.Watch.Enabled = c.Watch.Enabled || file.Watch.Enabled
	if file.Watch.DebounceSeconds != 0 {
		c.Watch.DebounceSeconds = file.Watch.DebounceSeconds
	}
	if file.Watch.StableThresholdMs != 0 {
		c.Watch.StableThresholdMs = file.Watch.StableThresholdMs
	}
	if file.Watch.IgnorePatterns != nil {
		c.Watch.IgnorePatterns = file.Watch.IgnorePatterns
	}
}

// NormalizeExtensions lower-cases exts, strips one leading dot, drops
// empty entries and removes duplicates, keeping first-seen order.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// WatchConfig converts the watch settings for the watcher.
func (c *Configuration) WatchConfig() *watcher.WatchConfig {
	return &watcher.WatchConfig{
		DebounceSeconds:   c.Watch.DebounceSeconds,
		StableThresholdMs: c.Watch.StableThresholdMs,
		IgnorePatterns:    c.Watch.IgnorePatterns,
		Extensions:        c.Extensions,
	}
}
