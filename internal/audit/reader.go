package audit

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// ErrNoRuns is returned when the journal holds no runs.
var ErrNoRuns = errors.New("journal contains no runs")

// Reader reads events from a journal directory.
type Reader struct {
	logPath string
}

// NewReader creates a Reader for the journal in dir.
func NewReader(dir string) *Reader {
	return &Reader{logPath: filepath.Join(dir, JournalFileName)}
}

// LogPath returns the journal file path.
func (r *Reader) LogPath() string {
	return r.logPath
}

// ReadAll returns every event in file order. A missing journal reads as
// empty. A final line cut short by a crash is ignored; any other malformed
// line is an error.
func (r *Reader) ReadAll() ([]Event, error) {
	file, err := os.Open(r.logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	var events []Event
	br := bufio.NewReader(file)
	for lineNum := 1; ; lineNum++ {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("error reading journal: %w", readErr)
		}
		complete := readErr == nil
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			event, err := UnmarshalJSONLine(line)
			if err != nil {
				if !complete {
					break
				}
				return nil, fmt.Errorf("failed to parse line %d: %w", lineNum, err)
			}
			events = append(events, *event)
		}
		if !complete {
			break
		}
	}
	return events, nil
}

// ListRuns returns all runs in the order they were started.
func (r *Reader) ListRuns() ([]RunInfo, error) {
	events, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var order []RunID
	byRun := make(map[RunID][]Event)
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		if _, seen := byRun[e.RunID]; !seen {
			order = append(order, e.RunID)
		}
		byRun[e.RunID] = append(byRun[e.RunID], e)
	}

	runs := make([]RunInfo, 0, len(order))
	for _, id := range order {
		runs = append(runs, buildRunInfo(id, byRun[id]))
	}
	return runs, nil
}

// GetRun returns the events of runID in file order.
func (r *Reader) GetRun(runID RunID) ([]Event, error) {
	events, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetRunByID returns the RunInfo for runID.
func (r *Reader) GetRunByID(runID RunID) (*RunInfo, error) {
	runs, err := r.ListRuns()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].RunID == runID {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", runID)
}

// GetLatestRun returns the most recently started run.
func (r *Reader) GetLatestRun() (*RunInfo, error) {
	runs, err := r.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[len(runs)-1], nil
}

func buildRunInfo(runID RunID, events []Event) RunInfo {
	info := RunInfo{
		RunID:   runID,
		Status:  RunStatusInProgress,
		RunType: RunTypeRename,
	}

	for _, event := range events {
		switch event.EventType {
		case EventRunStart:
			info.StartTime = event.Timestamp
			info.Directory = event.Metadata["directory"]
			if runType, ok := event.Metadata["runType"]; ok {
				info.RunType = RunType(runType)
			}
			if target, ok := event.Metadata["undoTargetId"]; ok {
				id := RunID(target)
				info.UndoTargetID = &id
				info.RunType = RunTypeUndo
			}
		case EventRunEnd:
			end := event.Timestamp
			info.EndTime = &end
			if status, ok := event.Metadata["status"]; ok {
				info.Status = RunStatus(status)
			}
			info.Summary = parseSummary(event.Metadata, info.Summary)
		case EventRename, EventUndoRename:
			info.Summary.Renamed++
		case EventSkip, EventUndoSkip:
			info.Summary.Skipped++
		case EventError:
			info.Summary.Errors++
		}
	}
	return info
}

// parseSummary prefers the counts written in RUN_END over the counted ones.
func parseSummary(metadata map[string]string, counted RunSummary) RunSummary {
	s := counted
	if v, err := strconv.Atoi(metadata["renamed"]); err == nil {
		s.Renamed = v
	}
	if v, err := strconv.Atoi(metadata["skipped"]); err == nil {
		s.Skipped = v
	}
	if v, err := strconv.Atoi(metadata["errors"]); err == nil {
		s.Errors = v
	}
	return s
}
