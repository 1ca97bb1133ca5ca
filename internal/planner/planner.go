// Package planner asks the user, group by group, which filename each book
// should receive. It builds a RenameMap and touches nothing on disk.
package planner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"hbrename/internal/output"
	"hbrename/internal/registry"
)

// Fixed menu entries offered after the candidates.
const (
	OptionCustom = "Enter a custom filename"
	OptionSkip   = "Skip"
)

// ErrCancelled is returned by Plan when the user aborts the session.
var ErrCancelled = errors.New("cancelled by user")

// Prompter is the interactive boundary. Implementations return an error
// wrapping context.Canceled when the user aborts.
type Prompter interface {
	// Select shows message with options and returns the chosen option.
	Select(ctx context.Context, message string, options []string) (string, error)
	// Input shows message and returns the typed text.
	Input(ctx context.Context, message string) (string, error)
}

// Candidates returns the distinct non-empty candidate names of g in
// first-seen order.
func Candidates(g *registry.Group) []string {
	var out []string
	seen := make(map[string]bool)
	for _, rec := range g.Records() {
		if rec.Candidate == "" || seen[rec.Candidate] {
			continue
		}
		seen[rec.Candidate] = true
		out = append(out, rec.Candidate)
	}
	return out
}

// Plan prompts for every group of reg in order and returns the accepted
// names. A group that is skipped, or answered with an empty response, gets
// no entry. Decisions made before a cancellation are discarded.
func Plan(ctx context.Context, reg *registry.Registry, p Prompter, out *output.Output) (*registry.RenameMap, error) {
	if out == nil {
		out = output.Discard()
	}
	renames := registry.NewRenameMap()

	for _, g := range reg.Groups() {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		name, ok, err := decide(ctx, g, p, out)
		if err != nil {
			if isCancel(err) {
				return nil, ErrCancelled
			}
			return nil, fmt.Errorf("planning %s: %w", g.Stem, err)
		}
		if !ok {
			out.Verbose("Skipping %s", g.Stem)
			continue
		}
		out.Info("Renaming %s to %s", g.Stem, name)
		renames.Set(g.Stem, name)
	}
	return renames, nil
}

func decide(ctx context.Context, g *registry.Group, p Prompter, out *output.Output) (string, bool, error) {
	var resp string
	var err error
	if choices := Candidates(g); len(choices) == 0 {
		resp, err = p.Input(ctx, fmt.Sprintf("Filename: %s - No choices found, please enter a filename", g.Stem))
	} else {
		options := append(choices, OptionCustom, OptionSkip)
		resp, err = p.Select(ctx, fmt.Sprintf("Filename: %s - Choose an option", g.Stem), options)
	}

	for {
		if err != nil {
			return "", false, err
		}
		resp = strings.TrimSpace(resp)
		switch resp {
		case "", OptionSkip:
			return "", false, nil
		case OptionCustom:
		default:
			reason := InvalidName(resp)
			if reason == "" {
				return resp, true, nil
			}
			out.Info("Invalid filename %q: %s", resp, reason)
		}
		resp, err = p.Input(ctx, fmt.Sprintf("Filename: %s - Enter a custom filename", g.Stem))
	}
}

// InvalidName returns why name cannot be used as a base filename in the
// scanned directory, or "" when it can.
func InvalidName(name string) string {
	switch {
	case name == "." || name == "..":
		return "reserved name"
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator):
		return "must not contain a path separator"
	case strings.ContainsRune(name, 0):
		return "must not contain NUL"
	}
	return ""
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled)
}
