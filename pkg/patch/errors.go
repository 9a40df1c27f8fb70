package patch

// ErrorCode classifies a patch failure.
type ErrorCode string

const (
	// CodeMalformedBlock marks a "---" line that is not followed by "+++".
	CodeMalformedBlock ErrorCode = "MALFORMED_BLOCK"
	// CodeEmptyPatchSet marks a diff source without any file blocks.
	CodeEmptyPatchSet ErrorCode = "EMPTY_PATCH_SET"
	// CodeUnresolvedTarget marks a declared path that matched no probed candidate.
	CodeUnresolvedTarget ErrorCode = "UNRESOLVED_TARGET"
	// CodeContextMismatch marks a context line that differs from the file.
	CodeContextMismatch ErrorCode = "CONTEXT_MISMATCH"
	// CodeRemoveMismatch marks a removed line that differs from the file.
	CodeRemoveMismatch ErrorCode = "REMOVE_MISMATCH"
	// CodeIOFailure marks a read or write failure.
	CodeIOFailure ErrorCode = "IO_FAILURE"
	// CodeMissingRoot marks a target root directory that does not exist.
	CodeMissingRoot ErrorCode = "MISSING_ROOT"
	// CodeMissingDiffSource marks a diff file that could not be located.
	CodeMissingDiffSource ErrorCode = "MISSING_DIFF_SOURCE"
)

// HunkStatus tracks how a hunk was applied when processing a file.
type HunkStatus struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}

const (
	hunkApplied = "applied"
	hunkFailed  = "failed"
)

// Applied reports whether the hunk was applied.
func (s HunkStatus) Applied() bool {
	return s.Status == hunkApplied
}

// FailedHunk stores the raw lines of a hunk that could not be applied.
type FailedHunk struct {
	Number        int      `json:"number"`
	RawPatchLines []string `json:"rawPatchLines"`
}

// Error represents a structured failure while parsing or applying a patch. It
// satisfies the error interface so it can be returned directly.
type Error struct {
	Code         ErrorCode   `json:"code"`
	Message      string      `json:"message"`
	RelativePath string      `json:"path,omitempty"`
	Line         int         `json:"line,omitempty"`
	Expected     string      `json:"expected,omitempty"`
	Actual       string      `json:"actual,omitempty"`
	Probed       []string    `json:"probed,omitempty"`
	FailedHunk   *FailedHunk `json:"failedHunk,omitempty"`
	Err          error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "patch error"
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
