package orchestrator

import (
	"fmt"
	"time"

	"hbrename/internal/organizer"
)

// Summary contains statistics from one or more passes.
type Summary struct {
	Groups   int // Book groups found by the scan
	Planned  int // Groups given a new name
	Renamed  int // Files renamed (or that would be, in a dry run)
	Skipped  int // Files already named, plus planned books no longer found
	Missing  int // Files that vanished before their rename
	Failed   int // Files whose rename failed
	DryRun   bool
	Duration time.Duration
}

// record adds the outcome of one Apply.
func (s *Summary) record(result *organizer.Result) {
	s.Renamed += result.Count(organizer.OutcomeRenamed) + result.Count(organizer.OutcomePlanned)
	s.Skipped += result.Count(organizer.OutcomeAlreadyNamed) + len(result.BooksNotFound)
	s.Missing += result.Count(organizer.OutcomeMissing)
	s.Failed += result.Count(organizer.OutcomeFailed)
}

// Add accumulates other into s. Used by watch mode across passes.
func (s *Summary) Add(other *Summary) {
	if other == nil {
		return
	}
	s.Groups += other.Groups
	s.Planned += other.Planned
	s.Renamed += other.Renamed
	s.Skipped += other.Skipped
	s.Missing += other.Missing
	s.Failed += other.Failed
}

// HasErrors returns true if any rename failed.
func (s *Summary) HasErrors() bool {
	return s.Failed > 0
}

// String formats the summary as one line.
func (s *Summary) String() string {
	verb := "renamed"
	if s.DryRun {
		verb = "would be renamed"
	}
	return fmt.Sprintf("%d books, %d named: %d files %s, %d skipped, %d missing, %d failed (%s)",
		s.Groups, s.Planned, s.Renamed, verb, s.Skipped, s.Missing, s.Failed, s.Duration.Round(time.Millisecond))
}
