// Package main provides the CLI entry point for hbrename.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hbrename/internal/audit"
	"hbrename/internal/config"
	"hbrename/internal/orchestrator"
	"hbrename/internal/output"
	"hbrename/internal/planner"
	"hbrename/internal/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, planner.ErrCancelled) || errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, "Cancelled by user.")
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

type rootFlags struct {
	verbose    bool
	addExt     []string
	dryRun     bool
	journal    string
	watch      bool
	configPath string
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "hbrename [flags] <folder>",
		Short: "Rename ebook files to the title stored in their metadata",
		Long: `hbrename groups the ebook files of a folder that share a name and differ
only by extension (PDF, EPUB, MOBI, ...). For each group it reads the titles
embedded in the files, asks which one to use, and renames every file of the
group to that name. Existing files are never overwritten.

To work on a folder named "undo" or "help", pass it as ./undo or ./help.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Build(config.Flags{
				Directory:  args[0],
				Verbose:    f.verbose,
				Extensions: f.addExt,
				DryRun:     f.dryRun,
				JournalDir: f.journal,
				Watch:      f.watch,
			}, f.configPath)
			if err != nil {
				return err
			}

			out := newOutput(cfg.Verbose, stdout, stderr)
			for _, w := range config.ValidateConfig(cfg).Warnings {
				out.Verbose("Warning: %s: %s", w.Field, w.Message)
			}
			if !prompt.IsInteractive(stdin) {
				out.Verbose("Standard input is not a terminal; reading answers line by line.")
			}

			summary, err := orchestrator.Run(cmd.Context(), cfg, orchestrator.Deps{
				Prompter: prompt.New(stdin, stdout),
				Out:      out,
			})
			if summary != nil {
				out.Verbose("%s", summary)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print diagnostic messages")
	flags.StringArrayVarP(&f.addExt, "add-ext", "a", nil, "also recognize this extension (repeatable)")
	flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "show the renames without changing anything")
	flags.StringVarP(&f.journal, "journal", "j", "", "record renames in a journal in this directory")
	flags.BoolVarP(&f.watch, "watch", "w", false, "keep running and handle new books as they arrive")
	flags.StringVarP(&f.configPath, "config", "c", "", "read settings from a YAML file")

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newUndoCmd(stdout, stderr))
	return cmd
}

func newUndoCmd(stdout, stderr io.Writer) *cobra.Command {
	var journal, runID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the renames of the latest (or a given) journaled run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(verbose, stdout, stderr)

			logPath := filepath.Join(journal, audit.JournalFileName)
			if _, err := os.Stat(logPath); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("%w: %s does not exist", audit.ErrNoRuns, logPath)
				}
				return err
			}

			w, err := audit.NewWriter(journal)
			if err != nil {
				return err
			}
			defer w.Close()

			engine := audit.NewUndoEngine(audit.NewReader(journal), w, out)
			var result *audit.UndoResult
			if runID != "" {
				result, err = engine.UndoRun(cmd.Context(), audit.RunID(runID))
			} else {
				result, err = engine.UndoLatest(cmd.Context())
			}
			if result != nil {
				out.Info("Restored %d of %d files (%d skipped, %d failed)",
					result.Restored, result.TotalEvents, result.Skipped, result.Failed)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&journal, "journal", "j", "", "journal directory")
	cmd.Flags().StringVar(&runID, "run", "", "run id to revert (default: latest run)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic messages")
	if err := cmd.MarkFlagRequired("journal"); err != nil {
		panic(err)
	}
	return cmd
}

func newOutput(verbose bool, stdout, stderr io.Writer) *output.Output {
	cfg := output.Config{Verbose: verbose, Writer: stdout, ErrWriter: stderr}
	if f, ok := stdout.(*os.File); ok {
		cfg.IsTTY = term.IsTerminal(int(f.Fd()))
	}
	return output.New(cfg)
}
