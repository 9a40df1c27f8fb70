package runner

import (
	"fmt"
	"strings"

	"github.com/asynkron/treepatch/pkg/patch"
)

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Patch report\n\n")
	if r.DryRun {
		b.WriteString("> Dry run: no files were modified.\n\n")
	}

	for _, root := range r.Roots {
		status := "patched"
		if root.Failed {
			status = "failed"
		}
		fmt.Fprintf(&b, "## `%s` (%s)\n\n", root.Root, status)
		if root.DiffFile != "" {
			fmt.Fprintf(&b, "Diff: `%s`\n\n", root.DiffFile)
		}
		if len(root.Files) > 0 {
			b.WriteString("| File | Hunks applied | Hunks failed | Changed |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, file := range root.Files {
				changed := "no"
				if file.Changed {
					changed = "yes"
				}
				fmt.Fprintf(&b, "| `%s` | %d | %d | %s |\n", file.Declared, file.HunksApplied, file.HunksFailed, changed)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Successfully patched %d/%d files.\n\n", root.FilesChanged, root.FilesTotal)

		problems := collectErrors(root)
		if len(problems) > 0 {
			b.WriteString("### Problems\n\n")
			for _, perr := range problems {
				b.WriteString("```\n")
				b.WriteString(patch.FormatError(perr))
				b.WriteString("\n```\n\n")
			}
		}
	}

	ok := len(r.Roots) - len(r.FailedRoots())
	fmt.Fprintf(&b, "**Summary:** %d/%d directories patched.\n", ok, len(r.Roots))
	return b.String()
}

func collectErrors(root RootReport) []*patch.Error {
	errs := append([]*patch.Error(nil), root.Errors...)
	for _, file := range root.Files {
		errs = append(errs, file.Errors...)
	}
	return errs
}
