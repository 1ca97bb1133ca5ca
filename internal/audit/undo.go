package audit

import (
	"context"
	"fmt"

	"hbrename/internal/organizer"
	"hbrename/internal/output"
)

// UndoResult summarizes an undo run.
type UndoResult struct {
	UndoRunID      RunID
	TargetRunID    RunID
	TotalEvents    int // RENAME events considered
	Restored       int
	Skipped        int
	Failed         int
	FailureDetails []UndoError
}

// UndoError describes a rename that could not be reverted.
type UndoError struct {
	SourcePath string // Original name, the undo target
	DestPath   string // Name given by the rename
	Reason     ReasonCode
	Message    string
}

func (e UndoError) Error() string {
	return fmt.Sprintf("%s: %s -> %s: %s", e.Reason, e.DestPath, e.SourcePath, e.Message)
}

// UndoEngine reverts rename runs recorded in the journal.
type UndoEngine struct {
	reader *Reader
	writer *Writer
	out    *output.Output
}

// NewUndoEngine creates an UndoEngine. The writer records the UNDO run.
func NewUndoEngine(reader *Reader, writer *Writer, out *output.Output) *UndoEngine {
	if out == nil {
		out = output.Discard()
	}
	return &UndoEngine{reader: reader, writer: writer, out: out}
}

// UndoLatest reverts the most recent run. The most recent run must not be an
// UNDO run itself.
func (e *UndoEngine) UndoLatest(ctx context.Context) (*UndoResult, error) {
	latest, err := e.reader.GetLatestRun()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if latest.RunType == RunTypeUndo {
		return nil, fmt.Errorf("cannot undo an UNDO run; pass --run with the original run id")
	}
	return e.UndoRun(ctx, latest.RunID)
}

// UndoRun reverts the renames of runID, newest first. Each file is checked
// against its recorded identity and moved back without overwriting anything.
// Files that are missing, changed, or whose original name is taken are
// skipped and recorded.
func (e *UndoEngine) UndoRun(ctx context.Context, runID RunID) (*UndoResult, error) {
	runInfo, err := e.reader.GetRunByID(runID)
	if err != nil {
		return nil, err
	}
	if runInfo.RunType == RunTypeUndo {
		return nil, fmt.Errorf("cannot undo an UNDO run")
	}

	events, err := e.reader.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for run %s: %w", runID, err)
	}

	undoRunID, err := e.writer.StartUndoRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to start undo run: %w", err)
	}
	result := &UndoResult{UndoRunID: undoRunID, TargetRunID: runID}

	status := RunStatusCompleted
	for i := len(events) - 1; i >= 0; i-- {
		event := events[i]
		if event.EventType != EventRename {
			continue
		}
		if ctx.Err() != nil {
			status = RunStatusInterrupted
			break
		}
		result.TotalEvents++

		if undoErr := e.undoRename(event); undoErr != nil {
			if undoErr.Reason == "" {
				result.Failed++
			} else {
				result.Skipped++
			}
			result.FailureDetails = append(result.FailureDetails, *undoErr)
			continue
		}
		result.Restored++
	}

	if status == RunStatusCompleted && result.Failed > 0 && result.Restored == 0 {
		status = RunStatusFailed
	}
	if _, err := e.writer.EndRun(status); err != nil {
		return result, fmt.Errorf("failed to end undo run: %w", err)
	}
	if status == RunStatusInterrupted {
		return result, ctx.Err()
	}
	return result, nil
}

// undoRename moves event.DestinationPath back to event.SourcePath. A
// non-empty Reason in the returned error marks a skip; an empty one a
// failure.
func (e *UndoEngine) undoRename(event Event) *UndoError {
	current, original := event.DestinationPath, event.SourcePath

	skip := func(reason ReasonCode, msg string) *UndoError {
		e.out.Info("Skipping %s: %s", current, msg)
		if err := e.writer.RecordUndoSkip(current, original, reason); err != nil {
			e.out.Error("Warning: failed to write journal: %v", err)
		}
		return &UndoError{SourcePath: original, DestPath: current, Reason: reason, Message: msg}
	}

	if event.FileIdentity != nil {
		match, err := VerifyIdentity(current, *event.FileIdentity)
		if err != nil {
			return e.fail(current, original, err)
		}
		switch match {
		case IdentityNotFound:
			return skip(ReasonFileMissing, "file no longer exists")
		case IdentitySizeMismatch, IdentityHashMismatch:
			return skip(ReasonIdentityMismatch, "file changed since it was renamed")
		}
	} else if !organizer.FileExists(current) {
		return skip(ReasonFileMissing, "file no longer exists")
	}

	e.out.Info("%s -> %s", current, original)
	if err := organizer.RenameNoReplace(current, original); err != nil {
		if organizer.IsExist(err) {
			return skip(ReasonDestinationOccupied, "original name is taken")
		}
		return e.fail(current, original, err)
	}

	if err := e.writer.RecordUndoRename(current, original); err != nil {
		e.out.Error("Warning: failed to write journal: %v", err)
	}
	return nil
}

func (e *UndoEngine) fail(current, original string, err error) *UndoError {
	e.out.Info("Error restoring %s: %v", current, err)
	if jerr := e.writer.RecordError(current, "undo", err); jerr != nil {
		e.out.Error("Warning: failed to write journal: %v", jerr)
	}
	return &UndoError{SourcePath: original, DestPath: current, Message: err.Error()}
}
