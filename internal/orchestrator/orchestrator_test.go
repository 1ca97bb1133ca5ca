package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hbrename/internal/audit"
	"hbrename/internal/config"
	"hbrename/internal/output"
	"hbrename/internal/planner"
	"hbrename/internal/prompt"
	"hbrename/internal/testutil"
)

// syncBuffer is a bytes.Buffer safe for the watcher's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(dir string) *config.Configuration {
	cfg := config.DefaultConfiguration()
	cfg.Directory = dir
	return cfg
}

func testDeps(answers string, out *syncBuffer, verbose bool) Deps {
	return Deps{
		Prompter: prompt.New(strings.NewReader(answers), out),
		Out:      output.New(output.Config{Writer: out, ErrWriter: out, Verbose: verbose}),
	}
}

// mybook writes the PDF and EPUB of one book whose metadata titles agree.
func mybook(t *testing.T, dir string) {
	t.Helper()
	testutil.WritePDF(t, dir, "mybook.pdf", testutil.PDFInfo{"Title": testutil.PDFString("my book")})
	testutil.WriteEPUB(t, dir, "mybook.epub", testutil.EPUBMeta{Titles: []string{"My Book"}, Creators: []string{"Ann Author"}})
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func assertNames(t *testing.T, dir string, want ...string) {
	t.Helper()
	sort.Strings(want)
	got := listDir(t, dir)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("directory = %v, want %v", got, want)
	}
}

func TestRun_RenamesSiblings(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	out := &syncBuffer{}

	summary, err := Run(context.Background(), testConfig(dir), testDeps("1\n", out, false))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	assertNames(t, dir, "My Book.pdf", "My Book.epub")
	if summary.Groups != 1 || summary.Planned != 1 || summary.Renamed != 2 || summary.HasErrors() {
		t.Errorf("summary = %+v", summary)
	}
	for _, want := range []string{"Filename: mybook - Choose an option", "1) My Book", "Renaming mybook to My Book"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_ExistingTargetGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	testutil.Touch(t, dir, "My Book.pdf")

	if _, err := Run(context.Background(), testConfig(dir), testDeps("1\n", &syncBuffer{}, false)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertNames(t, dir, "My Book.pdf", "My Book_1.pdf", "My Book.epub")
}

func TestRun_NoBooks(t *testing.T) {
	dir := t.TempDir()
	testutil.Touch(t, dir, "notes.txt")
	testutil.Touch(t, dir, "Already Named.pdf")
	out := &syncBuffer{}

	summary, err := Run(context.Background(), testConfig(dir), testDeps("", out, true))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Groups != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "No books found.") || strings.Contains(out.String(), "No renames found.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRun_SkipAll(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	testutil.Touch(t, dir, "untitled.pdf")
	out := &syncBuffer{}

	// "3" skips mybook; the empty answer skips untitled, which has no candidates.
	summary, err := Run(context.Background(), testConfig(dir), testDeps("3\n\n", out, false))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertNames(t, dir, "mybook.pdf", "mybook.epub", "untitled.pdf")
	if summary.Planned != 0 || !strings.Contains(out.String(), "No renames found.") {
		t.Errorf("summary = %+v, output:\n%s", summary, out.String())
	}
	if !strings.Contains(out.String(), "Filename: untitled - No choices found, please enter a filename") {
		t.Errorf("missing free-text prompt:\n%s", out.String())
	}
}

func TestRun_CancelledKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	testutil.Touch(t, dir, "other.pdf")

	// Naming mybook, then end of input at the second group.
	_, err := Run(context.Background(), testConfig(dir), testDeps("1\n", &syncBuffer{}, false))
	if !errors.Is(err, planner.ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}
	assertNames(t, dir, "mybook.pdf", "mybook.epub", "other.pdf")
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	testutil.Touch(t, dir, "My Book.pdf")
	journal := t.TempDir()

	cfg := testConfig(dir)
	cfg.DryRun = true
	cfg.JournalDir = journal
	out := &syncBuffer{}

	summary, err := Run(context.Background(), cfg, testDeps("1\n", out, false))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertNames(t, dir, "mybook.pdf", "mybook.epub", "My Book.pdf")
	if !summary.DryRun || summary.Renamed != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "My Book_1.pdf") {
		t.Errorf("dry run should show the suffixed target:\n%s", out.String())
	}
	if names := listDir(t, journal); len(names) != 0 {
		t.Errorf("dry run wrote a journal: %v", names)
	}
}

func TestRun_JournalThenUndo(t *testing.T) {
	dir := t.TempDir()
	mybook(t, dir)
	journal := t.TempDir()

	cfg := testConfig(dir)
	cfg.JournalDir = journal
	if _, err := Run(context.Background(), cfg, testDeps("1\n", &syncBuffer{}, false)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertNames(t, dir, "My Book.pdf", "My Book.epub")

	runs, err := audit.NewReader(journal).ListRuns()
	if err != nil || len(runs) != 1 || runs[0].Summary.Renamed != 2 || runs[0].Status != audit.RunStatusCompleted {
		t.Fatalf("runs = %+v, %v", runs, err)
	}

	w, err := audit.NewWriter(journal)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	result, err := audit.NewUndoEngine(audit.NewReader(journal), w, nil).UndoLatest(context.Background())
	if err != nil || result.Restored != 2 {
		t.Fatalf("UndoLatest() = %+v, %v", result, err)
	}
	assertNames(t, dir, "mybook.pdf", "mybook.epub")
}

func TestRun_InvalidDirectory(t *testing.T) {
	cfg := testConfig(t.TempDir() + "/missing")
	if _, err := Run(context.Background(), cfg, testDeps("", &syncBuffer{}, false)); err == nil {
		t.Error("Run() should fail for a missing directory")
	}
}

func TestNew_RequiresPrompter(t *testing.T) {
	if _, err := New(testConfig(t.TempDir()), Deps{}); err == nil {
		t.Error("New() should fail without a prompter")
	}
}

// firstChoice picks the first option and reports each prompt.
type firstChoice struct {
	prompted chan string
}

func (f *firstChoice) Select(ctx context.Context, message string, options []string) (string, error) {
	f.prompted <- message
	return options[0], nil
}

func (f *firstChoice) Input(ctx context.Context, message string) (string, error) {
	f.prompted <- message
	return "", nil
}

func TestRun_WatchHandlesNewBook(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Watch.Enabled = true
	cfg.Watch.DebounceSeconds = 1
	cfg.Watch.StableThresholdMs = 100

	out := &syncBuffer{}
	p := &firstChoice{prompted: make(chan string, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type runResult struct {
		summary *Summary
		err     error
	}
	done := make(chan runResult, 1)
	go func() {
		s, err := Run(ctx, cfg, Deps{Prompter: p, Out: output.New(output.Config{Writer: out, ErrWriter: out})})
		done <- runResult{s, err}
	}()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "Watching") {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not start")
		}
		time.Sleep(20 * time.Millisecond)
	}

	testutil.WritePDF(t, dir, "dune.pdf", testutil.PDFInfo{"Title": testutil.PDFString("dune")})
	testutil.WriteMOBI(t, dir, "dune.mobi", testutil.MOBIMeta{Title: "Dune", Author: "Frank Herbert"})

	select {
	case msg := <-p.prompted:
		if msg != "Filename: dune - Choose an option" {
			t.Errorf("prompt = %q", msg)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("new book was never prompted for")
	}

	// The renamed files must not come back as new books.
	select {
	case msg := <-p.prompted:
		t.Errorf("unexpected second prompt %q", msg)
	case <-time.After(2500 * time.Millisecond):
	}

	cancel()
	var res runResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if !errors.Is(res.err, planner.ErrCancelled) {
		t.Errorf("Run() error = %v, want ErrCancelled", res.err)
	}
	if res.summary.Renamed != 2 {
		t.Errorf("summary = %+v", res.summary)
	}
	assertNames(t, dir, "Dune.pdf", "Dune.mobi")
}
