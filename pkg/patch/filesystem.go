package patch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOptions augments Options with a working directory used to resolve
// relative paths when touching the local filesystem.
type FilesystemOptions struct {
	Options
	WorkingDir string
}

// ApplyFilesystem applies one file block to the file at path. The file is only
// rewritten when at least one hunk applied and DryRun is off. The returned error
// is non-nil only for read or write failures; hunk mismatches are reported in the
// result.
func ApplyFilesystem(path string, fp *FilePatch, opts FilesystemOptions) (FileResult, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return FileResult{File: path, Declared: fp.Path}, err
	}
	return applyFile(ws, path, fp, opts.Options)
}

type filesystemWorkspace struct {
	workingDir string
}

func newFilesystemWorkspace(opts FilesystemOptions) (*filesystemWorkspace, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &Error{Code: CodeIOFailure, Message: fmt.Sprintf("failed to determine working directory: %v", err), Err: err}
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	return &filesystemWorkspace{workingDir: workingDir}, nil
}

func (ws *filesystemWorkspace) Load(path string) (*document, error) {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &Error{Code: CodeIOFailure, Message: fmt.Sprintf("failed to stat %s: %v", rel, err), RelativePath: rel, Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Code: CodeIOFailure, Message: fmt.Sprintf("cannot patch directory %s", rel), RelativePath: rel}
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, &Error{Code: CodeIOFailure, Message: fmt.Sprintf("failed to read %s: %v", rel, err), RelativePath: rel, Err: err}
	}
	doc := newDocument(abs, rel, string(content))
	doc.mode = info.Mode()
	return doc, nil
}

func (ws *filesystemWorkspace) Commit(doc *document) error {
	perm := doc.mode & fs.ModePerm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(doc.path, []byte(doc.render()), perm); err != nil {
		return &Error{Code: CodeIOFailure, Message: fmt.Sprintf("failed to write %s: %v", doc.relativePath, err), RelativePath: doc.relativePath, Err: err}
	}
	return nil
}

func (ws *filesystemWorkspace) resolvePath(path string) (string, string, error) {
	rel := strings.TrimSpace(path)
	if rel == "" {
		return "", "", &Error{Code: CodeIOFailure, Message: "invalid patch path"}
	}
	cleaned := filepath.Clean(rel)
	abs := cleaned
	if !filepath.IsAbs(cleaned) {
		abs = filepath.Join(ws.workingDir, cleaned)
	}
	return abs, cleaned, nil
}
