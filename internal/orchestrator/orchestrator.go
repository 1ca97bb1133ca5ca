// Package orchestrator coordinates the hbrename workflow: scan the
// directory, plan names interactively, apply them, and optionally keep
// watching for new books.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hbrename/internal/audit"
	"hbrename/internal/config"
	"hbrename/internal/metadata"
	"hbrename/internal/organizer"
	"hbrename/internal/output"
	"hbrename/internal/planner"
	"hbrename/internal/registry"
	"hbrename/internal/watcher"
)

// Deps are the collaborators of a run. Out and Source may be nil.
type Deps struct {
	Prompter planner.Prompter
	Out      *output.Output
	Source   metadata.Source // Default: an LRU cache over metadata.NewRegistry()
}

// Orchestrator runs passes over one directory.
type Orchestrator struct {
	cfg      *config.Configuration
	prompter planner.Prompter
	out      *output.Output
	source   metadata.Source
	journal  *audit.Writer    // nil when journaling is off or in a dry run
	watcher  *watcher.Watcher // set while watching
}

// New creates an Orchestrator. It opens the journal when one is configured
// and this is not a dry run. Call Close when done.
func New(cfg *config.Configuration, deps Deps) (*Orchestrator, error) {
	if deps.Prompter == nil {
		return nil, errors.New("orchestrator: a prompter is required")
	}
	o := &Orchestrator{
		cfg:      cfg,
		prompter: deps.Prompter,
		out:      deps.Out,
		source:   deps.Source,
	}
	if o.out == nil {
		o.out = output.Discard()
	}
	if o.source == nil {
		cache, err := metadata.NewCache(metadata.NewRegistry(), metadata.DefaultCacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating metadata cache: %w", err)
		}
		o.source = cache
	}

	if cfg.JournalDir != "" && !cfg.DryRun {
		w, err := audit.NewWriter(cfg.JournalDir)
		if err != nil {
			return nil, err
		}
		o.journal = w
	}
	return o, nil
}

// Close releases the journal.
func (o *Orchestrator) Close() error {
	if o.journal == nil {
		return nil
	}
	return o.journal.Close()
}

// Run performs one pass over the whole directory and, with watch mode on,
// keeps handling new books until ctx is cancelled. A user cancellation is
// reported as planner.ErrCancelled together with the summary so far.
func Run(ctx context.Context, cfg *config.Configuration, deps Deps) (*Summary, error) {
	o, err := New(cfg, deps)
	if err != nil {
		return nil, err
	}
	defer o.Close()

	start := time.Now()
	summary, err := o.Pass(ctx, nil)
	if err == nil && cfg.Watch.Enabled {
		var more *Summary
		more, err = o.Watch(ctx)
		summary.Add(more)
	}
	summary.Duration = time.Since(start)
	return summary, err
}

// Pass scans the directory and handles the groups named by stems, or every
// group when stems is nil.
func (o *Orchestrator) Pass(ctx context.Context, stems []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{DryRun: o.cfg.DryRun}
	defer func() { summary.Duration = time.Since(start) }()

	reg, err := registry.Scan(o.cfg.Directory, registry.Options{
		Extensions: o.cfg.Extensions,
		Source:     o.source,
		Out:        o.out,
	})
	if err != nil {
		return summary, err
	}
	if stems != nil {
		reg = reg.Restrict(stems)
	}
	summary.Groups = reg.Len()
	if reg.Len() == 0 {
		o.out.Verbose("No books found.")
		return summary, nil
	}

	renames, err := planner.Plan(ctx, reg, o.prompter, o.out)
	if err != nil {
		return summary, err
	}
	summary.Planned = renames.Len()
	if renames.Len() == 0 {
		o.out.Info("No renames found.")
		return summary, nil
	}

	opts := organizer.Options{DryRun: o.cfg.DryRun, Out: o.out}
	if o.journal != nil {
		if _, err := o.journal.StartRun(o.cfg.Directory); err != nil {
			o.out.Error("Warning: failed to start journal run: %v", err)
		} else {
			opts.Journal = o.journal
		}
	}

	result := organizer.Apply(reg, renames, opts)
	summary.record(result)

	if opts.Journal != nil {
		status := audit.RunStatusCompleted
		if summary.Failed > 0 && summary.Renamed == 0 {
			status = audit.RunStatusFailed
		}
		if _, err := o.journal.EndRun(status); err != nil {
			o.out.Error("Warning: failed to end journal run: %v", err)
		}
	}

	if o.watcher != nil {
		for _, f := range result.Files {
			if f.Outcome == organizer.OutcomeRenamed {
				o.watcher.Suppress(f.DestinationPath)
			}
		}
	}
	return summary, nil
}

// Watch handles new books as they arrive until ctx is cancelled, which is
// reported as planner.ErrCancelled. Stems arriving together are handled in
// one pass.
func (o *Orchestrator) Watch(ctx context.Context) (*Summary, error) {
	total := &Summary{DryRun: o.cfg.DryRun}

	w := watcher.New(o.cfg.WatchConfig(), o.out)
	if err := w.Start(o.cfg.Directory); err != nil {
		return total, fmt.Errorf("starting watcher: %w", err)
	}
	o.watcher = w
	defer func() {
		o.watcher = nil
		ws := w.Stop()
		o.out.Verbose("Watch session: %d events, %d ignored, %d books handled in %s",
			ws.Events, ws.Ignored, ws.Delivered, ws.Duration.Round(time.Second))
	}()

	o.out.Info("Watching %s for new books. Press Ctrl+C to stop.", o.cfg.Directory)
	for {
		select {
		case <-ctx.Done():
			return total, planner.ErrCancelled
		case stem := <-w.Ready():
			stems := drain(w.Ready(), stem)
			o.out.Verbose("New files for %v", stems)
			s, err := o.Pass(ctx, stems)
			total.Add(s)
			if err != nil {
				return total, err
			}
		}
	}
}

// drain returns first plus every stem already waiting on ch.
func drain(ch <-chan string, first string) []string {
	stems := []string{first}
	for {
		select {
		case s := <-ch:
			stems = append(stems, s)
		default:
			return stems
		}
	}
}
