package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer groups file events by stem and fires once per stem after the
// stem has been quiet for the delay. Sibling formats of one book arriving
// together therefore produce a single callback carrying all their paths.
type Debouncer struct {
	delay    time.Duration
	callback func(stem string, paths []string)

	mu      sync.Mutex
	pending map[string]*pendingStem
}

type pendingStem struct {
	timer *time.Timer
	paths map[string]struct{}
}

// NewDebouncer creates a Debouncer. The callback runs on a timer goroutine.
func NewDebouncer(delay time.Duration, callback func(stem string, paths []string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]*pendingStem),
	}
}

// Add records path under stem and restarts the stem's timer.
func (d *Debouncer) Add(stem, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[stem]
	if ok {
		p.timer.Stop()
	} else {
		p = &pendingStem{paths: make(map[string]struct{})}
		d.pending[stem] = p
	}
	p.paths[path] = struct{}{}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(stem, p) })
}

func (d *Debouncer) fire(stem string, p *pendingStem) {
	d.mu.Lock()
	if d.pending[stem] != p {
		// Superseded by CancelAll or a newer entry.
		d.mu.Unlock()
		return
	}
	delete(d.pending, stem)
	paths := make([]string, 0, len(p.paths))
	for path := range p.paths {
		paths = append(paths, path)
	}
	d.mu.Unlock()

	sort.Strings(paths)
	if d.callback != nil {
		d.callback(stem, paths)
	}
}

// CancelAll drops every pending stem without firing.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for stem, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, stem)
	}
}

// PendingCount returns the number of stems waiting to fire.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending reports whether stem is waiting to fire.
func (d *Debouncer) IsPending(stem string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[stem]
	return ok
}
