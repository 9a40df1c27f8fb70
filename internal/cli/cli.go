package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/asynkron/treepatch/internal/core/runner"
	"github.com/asynkron/treepatch/internal/discovery"
	"github.com/asynkron/treepatch/internal/tui"
)

// Run applies the configured diff using the provided CLI arguments.
// It returns a POSIX-style exit code indicating whether execution succeeded.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	cfg, err := parseConfig(args, os.Getenv, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}
	return execute(ctx, cfg, stdout, stderr)
}

func execute(ctx context.Context, cfg Config, stdout, stderr io.Writer) int {
	roots := cfg.LibraryDirs
	if len(roots) == 0 {
		roots = discovery.NewContext(cfg.ProjectRoot).FindLibraryDirs(cfg.LibraryName)
		if len(roots) == 0 {
			fmt.Fprintf(stderr, "No %s directories found under %s. Pass -stlport-dir to name one.\n", cfg.LibraryName, cfg.ProjectRoot)
			return 1
		}
	}

	level := runner.LogLevelWarn
	if cfg.Verbose {
		level = runner.LogLevelDebug
	}
	traceID := runner.NewTraceID()
	ctx = runner.WithTraceID(ctx, traceID)
	logger := runner.NewStdLogger(level, stderr)
	logger.Debug(ctx, "Starting run", runner.Field("roots", len(roots)), runner.Field("diff_file", cfg.DiffFile))

	patcher := runner.New(runner.Options{
		DryRun:  cfg.DryRun,
		Verbose: cfg.Verbose,
		Strict:  cfg.Strict,
		Logger:  logger,
		Metrics: runner.NewInMemoryMetrics(),
	})
	run := func(ctx context.Context) runner.Report {
		return patcher.Run(ctx, roots, cfg.DiffFile)
	}

	if cfg.TUI {
		report, err := tui.Run(ctx, run)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return report.ExitCode()
	}

	report := run(ctx)
	switch {
	case cfg.JSON:
		data, err := report.JSON()
		if err != nil {
			fmt.Fprintf(stderr, "failed to encode report: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	case cfg.Markdown:
		rendered, err := renderMarkdown(stdout, report, 0)
		if err != nil {
			fmt.Fprintf(stderr, "failed to render report: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, rendered)
	default:
		writeSummary(stdout, newStyles(stdout), report, cfg.Verbose)
	}
	return report.ExitCode()
}
