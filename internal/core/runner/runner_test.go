package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/treepatch/pkg/patch"
)

const algobaseDiff = `--- /stl/_algobase.h	2002-01-01
+++ /stl/_algobase.h	2024-01-01
@@ -1,3 +1,3 @@
 a
-b
+B
 c
--- /stl/_missing.h
+++ /stl/_missing.h
@@ -1,1 +1,1 @@
-x
+y
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newLibraryRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stlport", "stl", "_algobase.h"), "a\nb\nc\n")
	writeFile(t, filepath.Join(root, DefaultDiffName), algobaseDiff)
	return root
}

func TestRunAppliesDiffAndReportsUnresolvedFiles(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	metrics := NewInMemoryMetrics()
	r := New(Options{Metrics: metrics})

	report := r.Run(context.Background(), []string{root}, "")

	require.True(t, report.Success)
	require.Equal(t, 0, report.ExitCode())
	require.Len(t, report.Roots, 1)

	rootReport := report.Roots[0]
	require.False(t, rootReport.Failed)
	require.Equal(t, filepath.Join(root, DefaultDiffName), rootReport.DiffFile)
	require.Equal(t, 2, rootReport.FilesTotal)
	require.Equal(t, 1, rootReport.FilesChanged)
	require.Equal(t, 1, rootReport.FilesFailed())
	require.Len(t, rootReport.Files, 2)

	missing := rootReport.Files[1]
	require.False(t, missing.Changed)
	require.Len(t, missing.Errors, 1)
	require.Equal(t, patch.CodeUnresolvedTarget, missing.Errors[0].Code)
	require.Equal(t, []string{
		filepath.Join(root, "stlport", "stl", "_missing.h"),
		filepath.Join(root, "stl", "_missing.h"),
	}, missing.Errors[0].Probed)

	content, err := os.ReadFile(filepath.Join(root, "stlport", "stl", "_algobase.h"))
	require.NoError(t, err)
	require.Equal(t, "a\nB\nc\n", string(content))

	snapshot := metrics.GetSnapshot()
	require.Equal(t, int64(2), snapshot.Files.Total)
	require.Equal(t, int64(1), snapshot.Files.Changed)
	require.Equal(t, int64(1), snapshot.HunksApplied)
	require.Equal(t, int64(1), snapshot.RootsOK)
	require.Equal(t, snapshot, report.Metrics)
}

func TestRunDryRunLeavesFilesUntouched(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	target := filepath.Join(root, "stlport", "stl", "_algobase.h")

	dry := New(Options{DryRun: true}).Run(context.Background(), []string{root}, "")
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "a\nb\nc\n", string(content))
	require.True(t, dry.DryRun)

	applied := New(Options{}).Run(context.Background(), []string{root}, "")
	require.Equal(t, dry.Success, applied.Success)
	require.Equal(t, dry.Roots[0].FilesChanged, applied.Roots[0].FilesChanged)
	require.Equal(t, dry.Roots[0].Files[0].HunksApplied, applied.Roots[0].Files[0].HunksApplied)
}

func TestRunSecondApplicationFailsRoot(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	r := New(Options{})
	first := r.Run(context.Background(), []string{root}, "")
	require.True(t, first.Success)

	second := r.Run(context.Background(), []string{root}, "")
	require.False(t, second.Success)
	require.Equal(t, 1, second.ExitCode())
	file := second.Roots[0].Files[0]
	require.Equal(t, 0, file.HunksApplied)
	require.Equal(t, 1, file.HunksFailed)
	require.Equal(t, patch.CodeRemoveMismatch, file.Errors[0].Code)
}

func TestRunMissingRootDoesNotStopLaterRoots(t *testing.T) {
	t.Parallel()

	good := newLibraryRoot(t)
	missing := filepath.Join(t.TempDir(), "absent")

	report := New(Options{}).Run(context.Background(), []string{missing, good}, "")

	require.Len(t, report.Roots, 2)
	require.True(t, report.Roots[0].Failed)
	require.Equal(t, patch.CodeMissingRoot, report.Roots[0].Errors[0].Code)
	require.False(t, report.Roots[1].Failed)
	require.False(t, report.Success)
	require.Equal(t, []string{missing}, report.FailedRoots())
}

func TestRunEmptyPatchSetTouchesNoFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultDiffName), "just some notes\nwithout any blocks\n")

	report := New(Options{}).Run(context.Background(), []string{root}, "")

	require.False(t, report.Success)
	rootReport := report.Roots[0]
	require.True(t, rootReport.Failed)
	require.Empty(t, rootReport.Files)
	require.Equal(t, patch.CodeEmptyPatchSet, rootReport.Errors[0].Code)
}

func TestRunDiffSourceFallsBackToRootCopy(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	explicit := filepath.Join(t.TempDir(), "custom.diff")

	report := New(Options{}).Run(context.Background(), []string{root}, explicit)

	require.True(t, report.Success)
	require.Equal(t, filepath.Join(root, DefaultDiffName), report.Roots[0].DiffFile)
}

func TestRunPrefersExplicitDiffFile(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	explicit := filepath.Join(t.TempDir(), "custom.diff")
	writeFile(t, explicit, "--- stl/_algobase.h\n+++ stl/_algobase.h\n@@ -3 +3 @@\n-c\n+C\n")

	report := New(Options{}).Run(context.Background(), []string{root}, explicit)

	require.True(t, report.Success)
	require.Equal(t, explicit, report.Roots[0].DiffFile)
	content, err := os.ReadFile(filepath.Join(root, "stlport", "stl", "_algobase.h"))
	require.NoError(t, err)
	require.Equal(t, "a\nb\nC\n", string(content))
}

func TestRunMissingDiffSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	report := New(Options{}).Run(context.Background(), []string{root}, "elsewhere.diff")

	require.False(t, report.Success)
	perr := report.Roots[0].Errors[0]
	require.Equal(t, patch.CodeMissingDiffSource, perr.Code)
	require.Equal(t, []string{"elsewhere.diff", filepath.Join(root, DefaultDiffName)}, perr.Probed)
}

func TestRunStrictModeRejectsMalformedBlock(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	diff := "--- stl/_algobase.h\nnot a plus line\n" + algobaseDiff
	writeFile(t, filepath.Join(root, DefaultDiffName), diff)

	strict := New(Options{Strict: true, DryRun: true}).Run(context.Background(), []string{root}, "")
	require.False(t, strict.Success)
	require.Equal(t, patch.CodeMalformedBlock, strict.Roots[0].Errors[0].Code)

	lenient := New(Options{DryRun: true}).Run(context.Background(), []string{root}, "")
	require.True(t, lenient.Success)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(Options{}).Run(ctx, []string{root}, "")

	require.False(t, report.Success)
	require.Empty(t, report.Roots[0].Files)
	require.Contains(t, report.Roots[0].Errors[0].Message, "cancelled")
}

func TestRunWithoutRootsFails(t *testing.T) {
	t.Parallel()

	report := New(Options{}).Run(context.Background(), nil, "")
	require.False(t, report.Success)
	require.Equal(t, 1, report.ExitCode())
}

func TestRunUsesInjectedResolver(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	var probed []string
	resolver := patch.Resolver{
		NestedDir: "stlport",
		Exists: func(path string) bool {
			probed = append(probed, path)
			return false
		},
	}

	report := New(Options{Resolver: resolver}).Run(context.Background(), []string{root}, "")

	require.False(t, report.Success)
	require.NotEmpty(t, probed)
}

func TestRunLogsThroughInjectedLogger(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	var buf bytes.Buffer
	logger := NewStdLogger(LogLevelDebug, &buf)
	ctx := WithTraceID(context.Background(), "trace-123")

	New(Options{Logger: logger}).Run(ctx, []string{root}, "")

	out := buf.String()
	require.Contains(t, out, "[INFO] Applying diff")
	require.Contains(t, out, "[WARN] Target not found")
	require.Contains(t, out, "trace_id=trace-123")
	require.True(t, strings.Contains(out, "[DEBUG] Patching file"))
}

func TestReportJSONValidatesAgainstSchema(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	report := New(Options{DryRun: true}).Run(context.Background(), []string{root, filepath.Join(root, "nope")}, "")

	data, err := report.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"code": "UNRESOLVED_TARGET"`)
	require.Contains(t, string(data), `"code": "MISSING_ROOT"`)
}

func TestValidateReportJSONRejectsUnknownCode(t *testing.T) {
	t.Parallel()

	raw := `{"roots":[{"root":"r","filesTotal":0,"filesChanged":0,"files":[],"failed":true,
"errors":[{"code":"NOPE","message":"m"}]}],"dryRun":false,"success":false,
"metrics":{"files":{"total":0,"changed":0,"unchanged":0},"hunksApplied":0,"hunksFailed":0,"rootsOk":0,"rootsFailed":1}}`

	err := ValidateReportJSON([]byte(raw))
	require.Error(t, err)
	var schemaErr SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	require.NotEmpty(t, schemaErr.Issues)
}

func TestReportMarkdownListsFilesAndProblems(t *testing.T) {
	t.Parallel()

	root := newLibraryRoot(t)
	report := New(Options{DryRun: true}).Run(context.Background(), []string{root}, "")

	md := report.Markdown()
	require.Contains(t, md, "> Dry run: no files were modified.")
	require.Contains(t, md, "| `/stl/_algobase.h` | 1 | 0 | yes |")
	require.Contains(t, md, "Successfully patched 1/2 files.")
	require.Contains(t, md, "Tried paths:")
	require.Contains(t, md, "**Summary:** 1/1 directories patched.")
}
