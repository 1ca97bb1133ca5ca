// Package watcher reports ebook stems whose files have finished arriving in
// a directory.
//
// File events are filtered, grouped by stem and debounced, and every file of
// a stem must hold a stable size before the stem is reported. Ready stems are
// delivered on a channel; the watcher never touches the files itself.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hbrename/internal/output"
	"hbrename/internal/scanner"
)

// WatchConfig contains watcher settings.
type WatchConfig struct {
	DebounceSeconds   int      // Quiet time per stem before checking (default: 2)
	StableThresholdMs int      // File size stability threshold in milliseconds (default: 1000)
	IgnorePatterns    []string // Glob patterns of names to ignore
	Extensions        []string // Accepted extensions; empty accepts all
}

// DefaultWatchConfig returns a WatchConfig with the default timings and
// ignore patterns.
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		DebounceSeconds:   2,
		StableThresholdMs: 1000,
		IgnorePatterns:    DefaultIgnorePatterns(),
	}
}

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	Events    int // Create/Rename events seen
	Ignored   int // Events dropped by the filter
	Delivered int // Stems sent on Ready
	Duration  time.Duration
}

// Watcher monitors one directory for new book files.
type Watcher struct {
	config    *WatchConfig
	out       *output.Output
	filter    *FileFilter
	debouncer *Debouncer
	stability *StabilityChecker
	fsWatcher *fsnotify.Watcher

	ready  chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	stopped    bool
	suppressed map[string]struct{}
	startTime  time.Time
	events     int
	ignored    int
	delivered  int
}

// New creates a Watcher. A nil config means DefaultWatchConfig.
func New(config *WatchConfig, out *output.Output) *Watcher {
	if config == nil {
		config = DefaultWatchConfig()
	}
	if out == nil {
		out = output.Discard()
	}
	w := &Watcher{
		config:     config,
		out:        out,
		filter:     NewFileFilter(config.IgnorePatterns, config.Extensions),
		stability:  NewStabilityChecker(time.Duration(config.StableThresholdMs) * time.Millisecond),
		ready:      make(chan string, 64),
		suppressed: make(map[string]struct{}),
	}
	w.debouncer = NewDebouncer(time.Duration(config.DebounceSeconds)*time.Second, w.settle)
	return w
}

// Start begins watching dir. The watcher runs until Stop is called.
func (w *Watcher) Start(dir string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		fsWatcher.Close()
		return err
	}
	if err := fsWatcher.Add(absDir); err != nil {
		fsWatcher.Close()
		return err
	}

	w.fsWatcher = fsWatcher
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.startTime = time.Now()

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Ready delivers stems whose files are complete. A stem may be delivered
// again if new files with that stem arrive later.
func (w *Watcher) Ready() <-chan string {
	return w.ready
}

// Suppress makes the watcher disregard events for paths. Use it for files
// the caller created itself, such as rename destinations.
func (w *Watcher) Suppress(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		w.suppressed[p] = struct{}{}
	}
}

// Stop shuts the watcher down and returns a summary of the session. Pending
// stems are dropped.
func (w *Watcher) Stop() *WatchSummary {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.debouncer.CancelAll()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	return &WatchSummary{
		Events:    w.events,
		Ignored:   w.ignored,
		Delivered: w.delivered,
		Duration:  time.Since(w.startTime),
	}
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.handleFileEvent(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.out.Error("Watch error: %v", err)
		}
	}
}

func (w *Watcher) handleFileEvent(path string) {
	w.mu.Lock()
	w.events++
	ignore := w.filter.ShouldIgnore(path)
	if ignore {
		w.ignored++
	}
	w.mu.Unlock()

	if ignore {
		w.out.Verbose("Watch: ignoring %s", filepath.Base(path))
		return
	}
	stem, _ := scanner.SplitName(filepath.Base(path))
	w.debouncer.Add(stem, path)
}

// settle runs when a stem has been quiet for the debounce delay. Each file
// is waited on until stable; files that vanished (the old name of a rename,
// a cancelled download) or that the caller suppressed are dropped. The stem
// is delivered if any file remains.
func (w *Watcher) settle(stem string, paths []string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	remaining := 0
	for _, path := range paths {
		err := w.stability.WaitForStable(w.ctx, path)
		switch {
		case err == nil:
			if !w.takeSuppressed(path) {
				remaining++
			}
		case errors.Is(err, ErrFileNotFound):
		case w.ctx.Err() != nil:
			return
		default:
			w.out.Verbose("Watch: %s: %v", filepath.Base(path), err)
		}
	}
	if remaining == 0 {
		return
	}

	select {
	case w.ready <- stem:
		w.mu.Lock()
		w.delivered++
		w.mu.Unlock()
	case <-w.ctx.Done():
	}
}

func (w *Watcher) takeSuppressed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.suppressed[path]; ok {
		delete(w.suppressed, path)
		return true
	}
	return false
}
