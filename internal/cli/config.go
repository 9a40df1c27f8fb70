package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/asynkron/treepatch/internal/core/runner"
	"github.com/asynkron/treepatch/internal/discovery"
)

const (
	envDiffFile    = "TREEPATCH_DIFF_FILE"
	envProjectRoot = "TREEPATCH_PROJECT_ROOT"
	envLibraryDir  = "TREEPATCH_LIB_DIR"
)

// Config holds the settings for one invocation.
type Config struct {
	DiffFile    string
	LibraryDirs []string
	ProjectRoot string
	LibraryName string
	DryRun      bool
	Verbose     bool
	Strict      bool
	JSON        bool
	Markdown    bool
	TUI         bool
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("directory must not be empty")
	}
	*s = append(*s, value)
	return nil
}

// parseConfig reads flags from args with defaults taken from getenv. Leftover
// positional arguments are accepted for compatibility: the first names a
// library directory and the second the diff file.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (Config, error) {
	defaultDiff := strings.TrimSpace(getenv(envDiffFile))
	if defaultDiff == "" {
		defaultDiff = runner.DefaultDiffName
	}
	defaultRoot := strings.TrimSpace(getenv(envProjectRoot))
	if defaultRoot == "" {
		defaultRoot = "."
	}
	libraryName := strings.TrimSpace(getenv(envLibraryDir))
	if libraryName == "" {
		libraryName = discovery.DefaultLibraryDir
	}

	cfg := Config{LibraryName: libraryName}
	var dirs stringList

	flagSet := flag.NewFlagSet("treepatch", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&cfg.DiffFile, "diff-file", defaultDiff, "path to the unified diff to apply")
	flagSet.Var(&dirs, "stlport-dir", "library directory to patch (repeatable); discovered under -project-root when omitted")
	flagSet.StringVar(&cfg.ProjectRoot, "project-root", defaultRoot, "project root searched for library directories")
	flagSet.BoolVar(&cfg.DryRun, "dry-run", false, "report what would change without writing files")
	flagSet.BoolVar(&cfg.Verbose, "verbose", false, "print per-file progress and metrics")
	flagSet.BoolVar(&cfg.Strict, "strict", false, "reject diffs containing a '---' line without a following '+++' line")
	flagSet.BoolVar(&cfg.JSON, "json", false, "print the report as JSON")
	flagSet.BoolVar(&cfg.Markdown, "markdown", false, "print the report as rendered markdown")
	flagSet.BoolVar(&cfg.TUI, "tui", false, "show the report in an interactive viewer")

	// Flags may follow positional arguments, so parsing resumes after each one.
	var positional []string
	rest := args
	for {
		if err := flagSet.Parse(rest); err != nil {
			return Config{}, err
		}
		rest = flagSet.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(dirs) == 0 && len(positional) > 0 {
		dirs = append(dirs, positional[0])
		if len(positional) > 1 {
			cfg.DiffFile = positional[1]
		}
	} else if len(positional) > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(positional, " "))
	}
	cfg.LibraryDirs = dirs

	modes := 0
	for _, on := range []bool{cfg.JSON, cfg.Markdown, cfg.TUI} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return Config{}, errors.New("only one of -json, -markdown and -tui may be set")
	}
	return cfg, nil
}
