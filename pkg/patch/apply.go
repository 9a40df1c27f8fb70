package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"
)

// Options configure how patches are applied for both filesystem and in-memory
// operations.
type Options struct {
	// DryRun computes every outcome but never commits new content.
	DryRun bool
}

// FileResult describes the outcome of applying one file block.
type FileResult struct {
	File         string       `json:"file"`
	Declared     string       `json:"declared"`
	HunksTotal   int          `json:"hunksTotal"`
	HunksApplied int          `json:"hunksApplied"`
	HunksFailed  int          `json:"hunksFailed"`
	Changed      bool         `json:"changed"`
	Hunks        []HunkStatus `json:"hunks,omitempty"`
	Errors       []*Error     `json:"errors,omitempty"`
}

type workspace interface {
	Load(path string) (*document, error)
	Commit(doc *document) error
}

// document is the working copy of one file. Lines carry no terminators; the
// dominant terminator and the final-newline flag are restored on render.
type document struct {
	path            string
	relativePath    string
	lines           []string
	newline         string
	endsWithNewline bool
	mode            fs.FileMode
}

func newDocument(path, relativePath, content string) *document {
	lines, newline, ends := splitDocument(content)
	return &document{
		path:            path,
		relativePath:    relativePath,
		lines:           lines,
		newline:         newline,
		endsWithNewline: ends,
	}
}

func splitDocument(content string) ([]string, string, bool) {
	if content == "" {
		return nil, "\n", true
	}
	newline := "\n"
	if idx := strings.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		newline = "\r\n"
	}
	ends := strings.HasSuffix(content, "\n")
	body := content
	if ends {
		body = strings.TrimSuffix(strings.TrimSuffix(body, "\n"), "\r")
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, newline, ends
}

func (d *document) render() string {
	if len(d.lines) == 0 {
		return ""
	}
	out := strings.Join(d.lines, d.newline)
	if d.endsWithNewline {
		out += d.newline
	}
	return out
}

// ApplyHunks applies hunks in order, each against the content produced by the
// hunks before it. A hunk that does not match leaves the content untouched and
// is reported; later hunks are still attempted. The input slice is never
// modified.
func ApplyHunks(lines []string, hunks []Hunk) ([]string, []HunkStatus, []*Error) {
	current := lines
	statuses := make([]HunkStatus, 0, len(hunks))
	var errs []*Error
	for index, hunk := range hunks {
		number := index + 1
		next, err := applyHunk(current, hunk)
		if err != nil {
			err.FailedHunk = &FailedHunk{
				Number:        number,
				RawPatchLines: append([]string(nil), hunk.RawPatchLines...),
			}
			errs = append(errs, err)
			statuses = append(statuses, HunkStatus{Number: number, Status: hunkFailed})
			continue
		}
		current = next
		statuses = append(statuses, HunkStatus{Number: number, Status: hunkApplied})
	}
	return current, statuses, errs
}

func applyHunk(content []string, hunk Hunk) ([]string, *Error) {
	start := hunk.OldStart - 1
	if start < 0 {
		start = 0
	}
	cursor := start
	output := make([]string, 0, len(hunk.Lines))

	for _, line := range hunk.Lines {
		switch line.Kind {
		case LineContext:
			if cursor >= len(content) || !sameLine(content[cursor], line.Text) {
				return nil, mismatch(CodeContextMismatch, "Context mismatch", content, cursor, line.Text)
			}
			output = append(output, content[cursor])
			cursor++
		case LineRemove:
			if cursor >= len(content) || !sameLine(content[cursor], line.Text) {
				return nil, mismatch(CodeRemoveMismatch, "Cannot remove line", content, cursor, line.Text)
			}
			cursor++
		case LineAdd:
			output = append(output, line.Text)
		}
	}

	prefix := content[:min(start, len(content))]
	result := make([]string, 0, len(prefix)+len(output)+max(len(content)-cursor, 0))
	result = append(result, prefix...)
	result = append(result, output...)
	if cursor < len(content) {
		result = append(result, content[cursor:]...)
	}
	return result, nil
}

// sameLine compares two lines ignoring trailing whitespace and line endings.
func sameLine(current, expected string) bool {
	return trimRight(current) == trimRight(expected)
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func mismatch(code ErrorCode, what string, content []string, cursor int, expected string) *Error {
	actual := "EOF"
	if cursor < len(content) {
		actual = trimRight(content[cursor])
	}
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf("%s at line %d", what, cursor+1),
		Line:     cursor + 1,
		Expected: trimRight(expected),
		Actual:   actual,
	}
}

// applyFile loads a document from ws, runs its hunks and commits the result when
// at least one hunk applied. Commit is skipped in dry-run mode.
func applyFile(ws workspace, path string, fp *FilePatch, opts Options) (FileResult, error) {
	hunks := fp.Hunks()
	result := FileResult{
		File:       path,
		Declared:   fp.Path,
		HunksTotal: len(hunks),
	}

	doc, err := ws.Load(path)
	if err != nil {
		perr := asIOError(err, fp.Path)
		result.Errors = append(result.Errors, perr)
		return result, perr
	}
	if doc.relativePath == "" {
		doc.relativePath = fp.Path
	}

	lines, statuses, errs := ApplyHunks(doc.lines, hunks)
	result.Hunks = statuses
	for _, hunkErr := range errs {
		hunkErr.RelativePath = doc.relativePath
	}
	result.Errors = append(result.Errors, errs...)
	for _, status := range statuses {
		if status.Applied() {
			result.HunksApplied++
		} else {
			result.HunksFailed++
		}
	}
	result.Changed = result.HunksApplied > 0

	if !result.Changed || opts.DryRun {
		return result, nil
	}
	doc.lines = lines
	if err := ws.Commit(doc); err != nil {
		perr := asIOError(err, fp.Path)
		result.Errors = append(result.Errors, perr)
		result.Changed = false
		return result, perr
	}
	return result, nil
}

func asIOError(err error, path string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Code: CodeIOFailure, Message: err.Error(), RelativePath: path, Err: err}
}

// DescribeHunkStatuses summarises which hunks applied and which did not.
func DescribeHunkStatuses(statuses []HunkStatus) string {
	if len(statuses) == 0 {
		return ""
	}
	var applied, failed []string
	for _, status := range statuses {
		if status.Applied() {
			applied = append(applied, fmt.Sprintf("%d", status.Number))
			continue
		}
		failed = append(failed, fmt.Sprintf("%d", status.Number))
	}

	parts := make([]string, 0, 2)
	if len(applied) > 0 {
		parts = append(parts, fmt.Sprintf("Hunks applied: %s.", strings.Join(applied, ", ")))
	}
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("Hunks failed: %s.", strings.Join(failed, ", ")))
	}
	return strings.Join(parts, " ")
}

// FormatError renders Error values into a human readable message suitable for
// surfacing to end users.
func FormatError(err *Error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	message := err.Message
	if message == "" {
		message = "Unknown error occurred."
	}

	var parts []string
	header := message
	if err.RelativePath != "" {
		header = fmt.Sprintf("%s: %s", err.RelativePath, message)
	}
	if err.FailedHunk != nil {
		header = fmt.Sprintf("%s (hunk %d)", header, err.FailedHunk.Number)
	}
	parts = append(parts, header)

	switch err.Code {
	case CodeContextMismatch, CodeRemoveMismatch:
		parts = append(parts, fmt.Sprintf("Expected: '%s'", err.Expected))
		parts = append(parts, fmt.Sprintf("Found: '%s'", err.Actual))
		if err.FailedHunk != nil && len(err.FailedHunk.RawPatchLines) > 0 {
			parts = append(parts, "", "Offending hunk:")
			parts = append(parts, strings.Join(err.FailedHunk.RawPatchLines, "\n"))
		}
	case CodeUnresolvedTarget:
		if len(err.Probed) > 0 {
			parts = append(parts, "Tried paths:")
			for _, candidate := range err.Probed {
				parts = append(parts, "  - "+candidate)
			}
		}
	}
	return strings.Join(parts, "\n")
}
