// Package output handles console reporting for hbrename: verbose diagnostics,
// per-file notices and the scan progress indicator.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Config holds output configuration.
type Config struct {
	Verbose   bool      // Enable diagnostic lines
	Writer    io.Writer // Notices and diagnostics (default: os.Stdout)
	ErrWriter io.Writer // Invocation errors (default: os.Stderr)
	IsTTY     bool      // Whether Writer is a terminal
}

// Output writes formatted lines and an optional in-place progress counter.
type Output struct {
	config Config

	mu              sync.Mutex
	progressActive  bool
	progressTotal   int
	progressCurrent int
	progressLabel   string
}

// New creates an Output. Nil writers fall back to stdout and stderr.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}
	return &Output{config: config}
}

// DefaultConfig returns a Config writing to the process streams with TTY detection.
func DefaultConfig() Config {
	return Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		IsTTY:     term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Discard returns an Output that drops everything. Handy in tests.
func Discard() *Output {
	return New(Config{Writer: io.Discard, ErrWriter: io.Discard})
}

// Verbose prints a line only when verbose mode is enabled.
func (o *Output) Verbose(format string, args ...interface{}) {
	if !o.config.Verbose {
		return
	}
	o.line(o.config.Writer, format, args...)
}

// Info prints a line unconditionally.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(o.config.Writer, format, args...)
}

// Error prints a line to the error stream.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(o.config.ErrWriter, format, args...)
}

func (o *Output) line(w io.Writer, format string, args ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearProgressLocked()
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(w, msg)
	o.redrawProgressLocked()
}

func (o *Output) clearProgressLocked() {
	if o.progressActive && o.config.IsTTY {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

func (o *Output) redrawProgressLocked() {
	if o.progressActive && o.config.IsTTY && o.progressCurrent > 0 {
		fmt.Fprintf(o.config.Writer, "\r%s %d/%d...", o.progressLabel, o.progressCurrent, o.progressTotal)
	}
}

// progressEnabled reports whether an in-place counter makes sense. It is
// suppressed off-terminal and in verbose mode, where it would garble the
// diagnostic lines.
func (o *Output) progressEnabled() bool {
	return o.config.IsTTY && !o.config.Verbose
}

// StartProgress begins a progress session over total items.
func (o *Output) StartProgress(label string, total int) {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progressActive = true
	o.progressTotal = total
	o.progressCurrent = 0
	o.progressLabel = label
}

// UpdateProgress moves the counter to current.
func (o *Output) UpdateProgress(current int) {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressCurrent = current
	fmt.Fprintf(o.config.Writer, "\r%s %d/%d...", o.progressLabel, current, o.progressTotal)
}

// EndProgress clears the counter line.
func (o *Output) EndProgress() {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progressActive {
		return
	}
	o.clearProgressLocked()
	o.progressActive = false
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the notice stream is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}
