package cli

import (
	"fmt"
	"io"
	"strings"

	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/treepatch/internal/core/runner"
	"github.com/asynkron/treepatch/pkg/patch"
)

type styles struct {
	heading lipgloss.Style
	ok      lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	detail  lipgloss.Style
}

func newStyles(out io.Writer, opts ...termenv.OutputOption) styles {
	r := lipgloss.NewRenderer(out, opts...)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("70")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("196")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("244")),
		detail:  r.NewStyle().PaddingLeft(4),
	}
}

// writeSummary prints a styled per-root summary. File lines are only shown in
// verbose mode; problems are always shown.
func writeSummary(out io.Writer, st styles, report runner.Report, verbose bool) {
	for _, root := range report.Roots {
		diff := root.DiffFile
		if diff == "" {
			diff = "(none)"
		}
		fmt.Fprintln(out, st.heading.Render(fmt.Sprintf("Applying patches to %s using diff file %s", root.Root, diff)))

		for _, perr := range root.Errors {
			fmt.Fprintln(out, st.bad.Render("  Error: ")+indent(patch.FormatError(perr)))
		}
		for _, file := range root.Files {
			if verbose || !file.Changed || file.HunksFailed > 0 {
				writeFileLine(out, st, file)
			}
		}
		if root.FilesTotal > 0 {
			line := fmt.Sprintf("  Successfully patched %d/%d files", root.FilesChanged, root.FilesTotal)
			if root.Failed {
				fmt.Fprintln(out, st.bad.Render(line))
			} else {
				fmt.Fprintln(out, st.ok.Render(line))
			}
		}
	}

	ok := len(report.Roots) - len(report.FailedRoots())
	summary := fmt.Sprintf("Summary: Successfully patched %d/%d STLport directories", ok, len(report.Roots))
	fmt.Fprintln(out)
	if report.Success {
		fmt.Fprintln(out, st.ok.Render(summary))
	} else {
		fmt.Fprintln(out, st.bad.Render(summary))
	}
	if report.DryRun {
		fmt.Fprintln(out, st.muted.Render("This was a dry run. No files were modified."))
	}
	if verbose {
		m := report.Metrics
		fmt.Fprintln(out, st.muted.Render(fmt.Sprintf(
			"Metrics: %d files (%d changed), %d hunks applied, %d hunks failed, %s total",
			m.Files.Total, m.Files.Changed, m.HunksApplied, m.HunksFailed, m.Files.TotalTime,
		)))
	}
}

func writeFileLine(out io.Writer, st styles, file patch.FileResult) {
	label := file.Declared
	switch {
	case file.Changed && file.HunksFailed == 0:
		fmt.Fprintln(out, st.ok.Render("  ✓ ")+fmt.Sprintf("%s (%d/%d hunks)", label, file.HunksApplied, file.HunksTotal))
	case file.Changed:
		fmt.Fprintln(out, st.bad.Render("  ~ ")+fmt.Sprintf("%s (%d/%d hunks)", label, file.HunksApplied, file.HunksTotal))
	default:
		fmt.Fprintln(out, st.bad.Render("  ✗ ")+label)
	}
	if status := patch.DescribeHunkStatuses(file.Hunks); status != "" && file.HunksFailed > 0 {
		fmt.Fprintln(out, st.detail.Render(status))
	}
	for _, perr := range file.Errors {
		fmt.Fprintln(out, st.detail.Render(patch.FormatError(perr)))
	}
}

func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n    ")
}

// renderMarkdown renders the markdown report. Plain output is used when out does
// not support colour.
func renderMarkdown(out io.Writer, report runner.Report, width int) (string, error) {
	if width < 20 {
		width = 80
	}
	style := "dark"
	if termenv.NewOutput(out).Profile == termenv.Ascii {
		style = "notty"
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath(style),
		glam.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(report.Markdown())
}
