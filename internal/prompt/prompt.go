// Package prompt implements a line-oriented terminal prompter: a numbered
// menu for choices and a plain line for free text.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrEndOfInput is returned when the input stream closes. It wraps
// context.Canceled, since closing stdin is how a user abandons the session.
var ErrEndOfInput = fmt.Errorf("end of input: %w", context.Canceled)

// IsInteractive reports whether r is a terminal.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type line struct {
	text string
	err  error
}

// Terminal prompts on a writer and reads answers line by line. Reads happen
// on a helper goroutine so that a cancelled context unblocks a pending
// prompt. That goroutine is never stopped: after a cancel it stays blocked
// on the reader or on delivering its next line until the process exits, so
// a Terminal is meant to live as long as the process.
type Terminal struct {
	reader io.Reader
	writer io.Writer

	start sync.Once
	lines chan line
}

// New creates a Terminal reading from r and writing prompts to w.
// Use os.Stdin and os.Stdout for normal operation, or buffers for testing.
func New(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{reader: r, writer: w, lines: make(chan line, 1)}
}

func (t *Terminal) readLoop() {
	scanner := bufio.NewScanner(t.reader)
	for scanner.Scan() {
		t.lines <- line{text: strings.TrimRight(scanner.Text(), "\r")}
	}
	err := scanner.Err()
	if err == nil {
		err = ErrEndOfInput
	}
	t.lines <- line{err: err}
	close(t.lines)
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.start.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.writer)
		return "", ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return "", ErrEndOfInput
		}
		if l.err != nil {
			if errors.Is(l.err, context.Canceled) {
				fmt.Fprintln(t.writer)
				return "", l.err
			}
			return "", fmt.Errorf("reading input: %w", l.err)
		}
		return l.text, nil
	}
}

// Select shows message and a numbered list of options, and returns the
// option picked by number or by its exact text (case-insensitive). Invalid
// answers are re-prompted.
func (t *Terminal) Select(ctx context.Context, message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("select: no options")
	}

	fmt.Fprintf(t.writer, "\n%s\n", message)
	for i, opt := range options {
		fmt.Fprintf(t.writer, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(t.writer, "Choice [1-%d]: ", len(options))
		answer, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)

		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, opt := range options {
			if answer != "" && strings.EqualFold(answer, opt) {
				return opt, nil
			}
		}
		fmt.Fprintf(t.writer, "Invalid choice '%s', enter a number between 1 and %d.\n", answer, len(options))
	}
}

// Input shows message and returns the answer line with surrounding
// whitespace removed. An empty line yields "".
func (t *Terminal) Input(ctx context.Context, message string) (string, error) {
	fmt.Fprintf(t.writer, "\n%s: ", message)
	answer, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
