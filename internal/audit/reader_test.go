package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReaderMissingJournal(t *testing.T) {
	r := NewReader(t.TempDir())

	events, err := r.ReadAll()
	if err != nil || events != nil {
		t.Errorf("ReadAll() = %v, %v; want nil, nil", events, err)
	}
	if _, err := r.GetLatestRun(); !errors.Is(err, ErrNoRuns) {
		t.Errorf("GetLatestRun() error = %v, want ErrNoRuns", err)
	}
}

func TestReaderListRuns(t *testing.T) {
	w, dir := newTestWriter(t)

	first, _ := w.StartRun("/one")
	w.EndRun(RunStatusCompleted)
	second, _ := w.StartRun("/two")
	w.RecordSkip("x", string(ReasonBookNotFound))
	w.EndRun(RunStatusInterrupted)
	undo, _ := w.StartUndoRun(first)
	w.EndRun(RunStatusCompleted)
	open, _ := w.StartRun("/three")

	r := NewReader(dir)
	runs, err := r.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("got %d runs, want 4", len(runs))
	}

	if runs[0].RunID != first || runs[0].Directory != "/one" || runs[0].EndTime == nil {
		t.Errorf("run 0 = %+v", runs[0])
	}
	if runs[1].RunID != second || runs[1].Status != RunStatusInterrupted || runs[1].Summary.Skipped != 1 {
		t.Errorf("run 1 = %+v", runs[1])
	}
	if runs[2].RunID != undo || runs[2].RunType != RunTypeUndo || runs[2].UndoTargetID == nil || *runs[2].UndoTargetID != first {
		t.Errorf("run 2 = %+v", runs[2])
	}
	if runs[3].RunID != open || runs[3].Status != RunStatusInProgress || runs[3].EndTime != nil {
		t.Errorf("run 3 = %+v", runs[3])
	}

	latest, err := r.GetLatestRun()
	if err != nil || latest.RunID != open {
		t.Errorf("GetLatestRun() = %v, %v", latest, err)
	}
	info, err := r.GetRunByID(second)
	if err != nil || info.Directory != "/two" {
		t.Errorf("GetRunByID() = %v, %v", info, err)
	}
	if _, err := r.GetRunByID("nope"); err == nil {
		t.Error("GetRunByID() should fail for an unknown id")
	}
}

func TestReaderIgnoresTruncatedLastLine(t *testing.T) {
	w, dir := newTestWriter(t)
	runID, _ := w.StartRun("/books")
	w.EndRun(RunStatusCompleted)
	w.Close()

	f, err := os.OpenFile(filepath.Join(dir, JournalFileName), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"timestamp":"2024-01-01T00:00:00Z","runId":"cut`)
	f.Close()

	runs, err := NewReader(dir).ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != runID {
		t.Errorf("runs = %+v", runs)
	}
}

func TestReaderRejectsCorruptLine(t *testing.T) {
	dir := t.TempDir()
	content := `{"timestamp":"2024-01-01T00:00:00Z","runId":"a","eventType":"RUN_START","status":"SUCCESS"}
not json
{"timestamp":"2024-01-01T00:00:01Z","runId":"a","eventType":"RUN_END","status":"SUCCESS"}
`
	if err := os.WriteFile(filepath.Join(dir, JournalFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewReader(dir).ReadAll(); err == nil {
		t.Error("ReadAll() should fail on a malformed line in the middle")
	}
}

func TestReaderSummaryWithoutRunEnd(t *testing.T) {
	dir := t.TempDir()
	content := `{"timestamp":"2024-01-01T00:00:00Z","runId":"a","eventType":"RUN_START","status":"SUCCESS","metadata":{"directory":"/b"}}

{"timestamp":"2024-01-01T00:00:01Z","runId":"a","eventType":"RENAME","status":"SUCCESS","sourcePath":"/b/x.pdf","destinationPath":"/b/X.pdf"}
{"timestamp":"2024-01-01T00:00:02Z","runId":"a","eventType":"ERROR","status":"FAILURE","sourcePath":"/b/y.pdf"}
`
	os.WriteFile(filepath.Join(dir, JournalFileName), []byte(content), 0644)

	info, err := NewReader(dir).GetLatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != RunStatusInProgress || info.Summary != (RunSummary{Renamed: 1, Errors: 1}) {
		t.Errorf("run = %+v", info)
	}
}
