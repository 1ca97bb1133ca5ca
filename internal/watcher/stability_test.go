package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewStabilityChecker_Interval(t *testing.T) {
	if got := NewStabilityChecker(time.Second).interval; got != 250*time.Millisecond {
		t.Errorf("interval = %v, want 250ms", got)
	}
	if got := NewStabilityChecker(100 * time.Millisecond).interval; got != 50*time.Millisecond {
		t.Errorf("small threshold interval = %v, want 50ms floor", got)
	}
	if got := NewStabilityChecker(time.Second).Threshold(); got != time.Second {
		t.Errorf("Threshold() = %v", got)
	}
}

func TestStabilityChecker_StableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	os.WriteFile(path, []byte("done"), 0644)

	s := NewStabilityCheckerWithOptions(60*time.Millisecond, time.Second, 10*time.Millisecond)
	if err := s.WaitForStable(context.Background(), path); err != nil {
		t.Errorf("WaitForStable() error = %v", err)
	}
}

func TestStabilityChecker_MissingFile(t *testing.T) {
	s := NewStabilityChecker(50 * time.Millisecond)
	err := s.WaitForStable(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("WaitForStable() error = %v, want ErrFileNotFound", err)
	}
}

func TestStabilityChecker_GrowingFileWaits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	os.WriteFile(path, []byte("x"), 0644)

	stop := make(chan struct{})
	go func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		defer f.Close()
		for i := 0; i < 5; i++ {
			time.Sleep(30 * time.Millisecond)
			f.WriteString("more")
		}
		close(stop)
	}()

	s := NewStabilityCheckerWithOptions(80*time.Millisecond, 2*time.Second, 10*time.Millisecond)
	start := time.Now()
	if err := s.WaitForStable(context.Background(), path); err != nil {
		t.Fatalf("WaitForStable() error = %v", err)
	}
	<-stop
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("returned after %v while the file was still growing", elapsed)
	}
}

func TestStabilityChecker_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	os.WriteFile(path, []byte("x"), 0644)

	s := NewStabilityCheckerWithOptions(time.Hour, 100*time.Millisecond, 10*time.Millisecond)
	if err := s.WaitForStable(context.Background(), path); !errors.Is(err, ErrFileUnstable) {
		t.Errorf("WaitForStable() error = %v, want ErrFileUnstable", err)
	}
}

func TestStabilityChecker_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	os.WriteFile(path, []byte("x"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStabilityCheckerWithOptions(time.Hour, time.Minute, 10*time.Millisecond)
	if err := s.WaitForStable(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitForStable() error = %v, want context.Canceled", err)
	}
}

func TestStabilityChecker_DeletedDuringWait(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	os.WriteFile(path, []byte("x"), 0644)

	go func() {
		time.Sleep(30 * time.Millisecond)
		os.Remove(path)
	}()

	s := NewStabilityCheckerWithOptions(time.Second, 2*time.Second, 10*time.Millisecond)
	if err := s.WaitForStable(context.Background(), path); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("WaitForStable() error = %v, want ErrFileNotFound", err)
	}
}
