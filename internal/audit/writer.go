package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"hbrename/internal/organizer"
)

// ErrNoActiveRun is returned when an event is recorded outside a run.
var ErrNoActiveRun = errors.New("no active run: call StartRun first")

// Writer appends events to the journal. Every event is flushed and synced
// before the call returns.
type Writer struct {
	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	logPath    string
	currentRun *RunID
	summary    RunSummary
}

// NewWriter opens (creating if needed) the journal in dir.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	logPath := filepath.Join(dir, JournalFileName)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	return &Writer{
		file:    file,
		writer:  bufio.NewWriter(file),
		logPath: logPath,
	}, nil
}

// GenerateRunID returns a new UUID v4 run id.
func GenerateRunID() RunID {
	return RunID(uuid.NewString())
}

// StartRun begins a rename run over directory.
func (w *Writer) StartRun(directory string) (RunID, error) {
	return w.start(map[string]string{
		"runType":   string(RunTypeRename),
		"directory": directory,
	})
}

// StartUndoRun begins an UNDO run reverting target.
func (w *Writer) StartUndoRun(target RunID) (RunID, error) {
	return w.start(map[string]string{
		"runType":      string(RunTypeUndo),
		"undoTargetId": string(target),
	})
}

func (w *Writer) start(metadata map[string]string) (RunID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun != nil {
		return "", fmt.Errorf("run %s is still active", *w.currentRun)
	}

	runID := GenerateRunID()
	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRunStart,
		Status:    StatusSuccess,
		Metadata:  metadata,
	}
	if err := w.writeEventLocked(event); err != nil {
		return "", fmt.Errorf("failed to write RUN_START event: %w", err)
	}

	w.currentRun = &runID
	w.summary = RunSummary{}
	return runID, nil
}

// EndRun writes RUN_END with the counts recorded since StartRun.
func (w *Writer) EndRun(status RunStatus) (RunSummary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return RunSummary{}, ErrNoActiveRun
	}

	opStatus := StatusSuccess
	if status == RunStatusFailed || status == RunStatusInterrupted {
		opStatus = StatusFailure
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     *w.currentRun,
		EventType: EventRunEnd,
		Status:    opStatus,
		Metadata: map[string]string{
			"status":  string(status),
			"renamed": strconv.Itoa(w.summary.Renamed),
			"skipped": strconv.Itoa(w.summary.Skipped),
			"errors":  strconv.Itoa(w.summary.Errors),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return w.summary, fmt.Errorf("failed to write RUN_END event: %w", err)
	}

	w.currentRun = nil
	return w.summary, nil
}

// RecordRename records a RENAME event with the identity of the renamed file.
// The event is written even when the identity cannot be captured; it then
// carries no FileIdentity and the capture failure under "identityError".
func (w *Writer) RecordRename(source, destination string) error {
	return w.recordRename(EventRename, source, destination)
}

// RecordUndoRename records an UNDO_RENAME event.
func (w *Writer) RecordUndoRename(source, destination string) error {
	return w.recordRename(EventUndoRename, source, destination)
}

func (w *Writer) recordRename(typ EventType, source, destination string) error {
	event := Event{
		EventType:       typ,
		Status:          StatusSuccess,
		SourcePath:      source,
		DestinationPath: destination,
	}
	identity, err := CaptureIdentity(destination)
	if err != nil {
		event.Metadata = map[string]string{"identityError": err.Error()}
	} else {
		event.FileIdentity = identity
	}
	return w.record(event, func(s *RunSummary) { s.Renamed++ })
}

// RecordSkip records a SKIP event.
func (w *Writer) RecordSkip(path, reason string) error {
	return w.record(Event{
		EventType:  EventSkip,
		Status:     StatusSkipped,
		SourcePath: path,
		ReasonCode: ReasonCode(reason),
	}, func(s *RunSummary) { s.Skipped++ })
}

// RecordUndoSkip records an UNDO_SKIP event for a rename that was left alone.
func (w *Writer) RecordUndoSkip(source, destination string, reason ReasonCode) error {
	return w.record(Event{
		EventType:       EventUndoSkip,
		Status:          StatusSkipped,
		SourcePath:      source,
		DestinationPath: destination,
		ReasonCode:      reason,
	}, func(s *RunSummary) { s.Skipped++ })
}

// RecordError records an ERROR event.
func (w *Writer) RecordError(path, operation string, err error) error {
	errType := "ERROR"
	var moveErr *organizer.MoveError
	if errors.As(err, &moveErr) {
		errType = string(moveErr.Type)
	}
	return w.record(Event{
		EventType:  EventError,
		Status:     StatusFailure,
		SourcePath: path,
		ErrorDetails: &ErrorDetails{
			ErrorType:    errType,
			ErrorMessage: err.Error(),
			Operation:    operation,
		},
	}, func(s *RunSummary) { s.Errors++ })
}

func (w *Writer) record(event Event, count func(*RunSummary)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}
	event.Timestamp = time.Now().UTC()
	event.RunID = *w.currentRun
	if err := w.writeEventLocked(event); err != nil {
		return err
	}
	count(&w.summary)
	return nil
}

// writeEventLocked appends one JSON line and syncs it to disk.
func (w *Writer) writeEventLocked(event Event) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := w.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event to disk: %w", err)
	}
	return nil
}

// CurrentRunID returns the active run id, or nil.
func (w *Writer) CurrentRunID() *RunID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentRun
}

// LogPath returns the journal file path.
func (w *Writer) LogPath() string {
	return w.logPath
}

// Close flushes buffered data and closes the journal.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}
