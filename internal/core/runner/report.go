package runner

import (
	"encoding/json"
	"fmt"

	"github.com/asynkron/treepatch/pkg/patch"
)

// RootReport is the outcome of applying a diff to one root directory.
type RootReport struct {
	Root         string             `json:"root"`
	DiffFile     string             `json:"diffFile,omitempty"`
	FilesTotal   int                `json:"filesTotal"`
	FilesChanged int                `json:"filesChanged"`
	Files        []patch.FileResult `json:"files"`
	Errors       []*patch.Error     `json:"errors,omitempty"`
	Failed       bool               `json:"failed"`
}

// FilesFailed counts files that were not changed.
func (r RootReport) FilesFailed() int {
	return r.FilesTotal - r.FilesChanged
}

// Report aggregates every root of a run.
type Report struct {
	Roots   []RootReport    `json:"roots"`
	DryRun  bool            `json:"dryRun"`
	Success bool            `json:"success"`
	Metrics MetricsSnapshot `json:"metrics"`
}

// ExitCode maps the report to a process exit status.
func (r Report) ExitCode() int {
	if r.Success {
		return 0
	}
	return 1
}

// FailedRoots lists the roots that did not change any file.
func (r Report) FailedRoots() []string {
	var roots []string
	for _, root := range r.Roots {
		if root.Failed {
			roots = append(roots, root.Root)
		}
	}
	return roots
}

// JSON renders the report as indented JSON and validates it against the report
// schema.
func (r Report) JSON() ([]byte, error) {
	if r.Roots == nil {
		r.Roots = []RootReport{}
	}
	for i := range r.Roots {
		if r.Roots[i].Files == nil {
			r.Roots[i].Files = []patch.FileResult{}
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("runner: encode report: %w", err)
	}
	if err := ValidateReportJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}
