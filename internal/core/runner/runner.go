package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asynkron/treepatch/pkg/patch"
)

// DefaultDiffName is the diff file looked up inside each root when no explicit
// diff source is available.
const DefaultDiffName = "stlport.diff"

// Options configure a Runner.
type Options struct {
	DryRun          bool
	Verbose         bool
	Strict          bool
	Resolver        patch.Resolver
	Logger          Logger
	Metrics         Metrics
	DefaultDiffName string
}

// Runner applies one diff source to a sequence of root directories.
type Runner struct {
	opts    Options
	logger  Logger
	metrics Metrics
}

// New builds a Runner, filling unset options with defaults.
func New(opts Options) *Runner {
	if opts.Resolver.Exists == nil {
		def := patch.DefaultResolver()
		if opts.Resolver.NestedDir == "" {
			opts.Resolver.NestedDir = def.NestedDir
		}
		if opts.Resolver.Groups == nil {
			opts.Resolver.Groups = def.Groups
		}
		opts.Resolver.Exists = def.Exists
	}
	if strings.TrimSpace(opts.DefaultDiffName) == "" {
		opts.DefaultDiffName = DefaultDiffName
	}
	logger := opts.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}
	return &Runner{opts: opts, logger: logger, metrics: metrics}
}

// Run processes every root in order. A failing root never prevents later roots
// from being processed.
func (r *Runner) Run(ctx context.Context, roots []string, diffFile string) Report {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{DryRun: r.opts.DryRun, Roots: make([]RootReport, 0, len(roots))}

	for _, root := range roots {
		rootReport := r.runRoot(ctx, root, diffFile)
		r.metrics.RecordRoot(root, !rootReport.Failed)
		if rootReport.Failed {
			r.logger.Warn(ctx, "Root failed", Field("root", root), Field("files_changed", rootReport.FilesChanged))
		} else {
			r.logger.Info(ctx, "Root patched", Field("root", root), Field("files_changed", rootReport.FilesChanged))
		}
		report.Roots = append(report.Roots, rootReport)
	}

	report.Success = len(report.Roots) > 0
	for _, rootReport := range report.Roots {
		if rootReport.Failed {
			report.Success = false
			break
		}
	}
	report.Metrics = r.metrics.GetSnapshot()
	return report
}

func (r *Runner) runRoot(ctx context.Context, root, diffFile string) RootReport {
	report := RootReport{Root: root, Failed: true}
	logger := r.logger.WithFields(Field("root", root))

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		report.Errors = append(report.Errors, &patch.Error{
			Code:         patch.CodeMissingRoot,
			Message:      fmt.Sprintf("Directory %s does not exist", root),
			RelativePath: root,
			Err:          err,
		})
		logger.Warn(ctx, "Root directory missing")
		return report
	}

	source, perr := r.diffSource(ctx, root, diffFile)
	if perr != nil {
		report.Errors = append(report.Errors, perr)
		logger.Warn(ctx, "Diff source missing", Field("diff_file", diffFile))
		return report
	}
	report.DiffFile = source
	logger.Info(ctx, "Applying diff", Field("diff_file", source), Field("dry_run", r.opts.DryRun))

	content, err := os.ReadFile(source)
	if err != nil {
		report.Errors = append(report.Errors, &patch.Error{
			Code:         patch.CodeIOFailure,
			Message:      fmt.Sprintf("failed to read diff %s: %v", source, err),
			RelativePath: source,
			Err:          err,
		})
		logger.Error(ctx, "Reading diff failed", err)
		return report
	}

	set, err := patch.Parse(string(content), patch.ParseOptions{Strict: r.opts.Strict})
	if err != nil {
		report.Errors = append(report.Errors, toPatchError(err, source))
		logger.Error(ctx, "Parsing diff failed", err)
		return report
	}
	if set.Len() == 0 {
		report.Errors = append(report.Errors, &patch.Error{
			Code:         patch.CodeEmptyPatchSet,
			Message:      "No patches found in the diff file",
			RelativePath: source,
		})
		logger.Warn(ctx, "Diff contains no patches")
		return report
	}
	report.FilesTotal = set.Len()

	for _, fp := range set.Files() {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, &patch.Error{
				Code:    patch.CodeIOFailure,
				Message: fmt.Sprintf("run cancelled: %v", err),
				Err:     err,
			})
			logger.Warn(ctx, "Run cancelled", Field("remaining", report.FilesTotal-len(report.Files)))
			report.Failed = true
			return report
		}
		result := r.runFile(ctx, logger, root, fp)
		if result.Changed {
			report.FilesChanged++
		}
		report.Files = append(report.Files, result)
	}

	report.Failed = report.FilesChanged == 0
	return report
}

func (r *Runner) runFile(ctx context.Context, logger Logger, root string, fp *patch.FilePatch) patch.FileResult {
	started := time.Now()
	resolution := r.opts.Resolver.Resolve(fp.Path, root)
	if !resolution.Found {
		result := patch.FileResult{
			Declared:   fp.Path,
			HunksTotal: len(fp.Hunks()),
			Errors: []*patch.Error{{
				Code:         patch.CodeUnresolvedTarget,
				Message:      fmt.Sprintf("File %s does not exist", fp.Path),
				RelativePath: fp.Path,
				Probed:       resolution.Probed,
			}},
		}
		logger.Warn(ctx, "Target not found", Field("path", fp.Path), Field("probed", len(resolution.Probed)))
		r.metrics.RecordFile(fp.Path, time.Since(started), false)
		return result
	}

	logger.Debug(ctx, "Patching file", Field("path", fp.Path), Field("target", resolution.Path))
	result, err := patch.ApplyFilesystem(resolution.Path, fp, patch.FilesystemOptions{
		Options: patch.Options{DryRun: r.opts.DryRun},
	})
	if err != nil {
		logger.Error(ctx, "File I/O failed", err, Field("path", fp.Path))
	} else if result.HunksFailed > 0 {
		logger.Warn(ctx, "Some hunks failed", Field("path", fp.Path), Field("status", patch.DescribeHunkStatuses(result.Hunks)))
	} else if result.Changed {
		fields := []LogField{Field("path", fp.Path), Field("hunks", result.HunksApplied)}
		if r.opts.Verbose {
			logger.Info(ctx, "File patched", fields...)
		} else {
			logger.Debug(ctx, "File patched", fields...)
		}
	}
	r.metrics.RecordHunks(result.HunksApplied, result.HunksFailed)
	r.metrics.RecordFile(fp.Path, time.Since(started), result.Changed)
	return result
}

// diffSource picks the diff file for root. An empty or default diffFile means the
// copy inside root; an explicit file that is missing falls back to it.
func (r *Runner) diffSource(ctx context.Context, root, diffFile string) (string, *patch.Error) {
	local := filepath.Join(root, r.opts.DefaultDiffName)
	diffFile = strings.TrimSpace(diffFile)
	if diffFile == "" || diffFile == r.opts.DefaultDiffName {
		if fileExists(local) {
			return local, nil
		}
		return "", missingDiff(root, local)
	}
	if fileExists(diffFile) {
		return diffFile, nil
	}
	r.logger.Warn(ctx, "Specified diff file not found, checking root", Field("diff_file", diffFile), Field("fallback", local))
	if fileExists(local) {
		return local, nil
	}
	return "", missingDiff(root, diffFile, local)
}

func missingDiff(root string, probed ...string) *patch.Error {
	return &patch.Error{
		Code:         patch.CodeMissingDiffSource,
		Message:      fmt.Sprintf("No diff file found for %s", root),
		RelativePath: root,
		Probed:       probed,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func toPatchError(err error, path string) *patch.Error {
	var perr *patch.Error
	if errors.As(err, &perr) {
		if perr.RelativePath == "" {
			perr.RelativePath = path
		}
		return perr
	}
	return &patch.Error{Code: patch.CodeIOFailure, Message: err.Error(), RelativePath: path, Err: err}
}
