// Package audit keeps an append-only journal of rename runs and can revert
// the renames of a run.
//
// The journal is a JSON Lines file. Every run is bracketed by RUN_START and
// RUN_END events; the events between them record each rename, skip and error
// in the order they happened.
package audit

import "time"

// JournalFileName is the journal file inside the journal directory.
const JournalFileName = "hbrename-journal.jsonl"

// RunID is a unique identifier for each program execution (UUID v4).
type RunID string

// EventType represents the type of journal event.
type EventType string

const (
	// Run lifecycle events
	EventRunStart EventType = "RUN_START"
	EventRunEnd   EventType = "RUN_END"

	// File operation events
	EventRename EventType = "RENAME"
	EventSkip   EventType = "SKIP"
	EventError  EventType = "ERROR"

	// Undo events
	EventUndoRename EventType = "UNDO_RENAME"
	EventUndoSkip   EventType = "UNDO_SKIP"
)

// OperationStatus represents the outcome of an operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "SUCCESS"
	StatusFailure OperationStatus = "FAILURE"
	StatusSkipped OperationStatus = "SKIPPED"
)

// ReasonCode explains a skip.
type ReasonCode string

const (
	ReasonBookNotFound   ReasonCode = "BOOK_NOT_FOUND"
	ReasonSourceNotFound ReasonCode = "SOURCE_NOT_FOUND"
	ReasonAlreadyNamed   ReasonCode = "ALREADY_NAMED"

	// Undo skip reasons
	ReasonIdentityMismatch    ReasonCode = "IDENTITY_MISMATCH"
	ReasonDestinationOccupied ReasonCode = "DESTINATION_OCCUPIED"
	ReasonFileMissing         ReasonCode = "FILE_MISSING"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusInProgress  RunStatus = "IN_PROGRESS"
	RunStatusCompleted   RunStatus = "COMPLETED"
	RunStatusFailed      RunStatus = "FAILED"
	RunStatusInterrupted RunStatus = "INTERRUPTED"
)

// RunType represents the type of run.
type RunType string

const (
	RunTypeRename RunType = "RENAME"
	RunTypeUndo   RunType = "UNDO"
)

// FileIdentity captures what a renamed file looked like right after the
// rename, so undo can tell whether it is still the same file.
type FileIdentity struct {
	ContentHash string    `json:"contentHash"` // SHA-256 hex string
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
}

// ErrorDetails contains detailed information about an error.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
	Operation    string `json:"operation"`
}

// Event is a single journal record.
type Event struct {
	Timestamp       time.Time
	RunID           RunID
	EventType       EventType
	Status          OperationStatus
	SourcePath      string
	DestinationPath string
	ReasonCode      ReasonCode
	FileIdentity    *FileIdentity
	ErrorDetails    *ErrorDetails
	Metadata        map[string]string
}

// RunSummary contains statistics for a completed run.
type RunSummary struct {
	Renamed int `json:"renamed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// RunInfo contains metadata and summary for a run.
type RunInfo struct {
	RunID        RunID
	StartTime    time.Time
	EndTime      *time.Time
	Status       RunStatus
	RunType      RunType
	Directory    string
	Summary      RunSummary
	UndoTargetID *RunID // For UNDO runs
}
