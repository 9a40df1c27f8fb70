package patch

import (
	"fmt"
	"path"
	"strings"
)

// ApplyToMemory applies every block in set to an in-memory document store keyed by
// slash-separated relative path. Declared paths are looked up with any leading
// slash removed. The provided map is copied before mutation and the updated
// snapshot is returned along with one result per block, in set order.
func ApplyToMemory(set *PatchSet, files map[string]string, opts Options) (map[string]string, []FileResult) {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	ws := newMemoryWorkspace(snapshot)

	results := make([]FileResult, 0, set.Len())
	for _, fp := range set.Files() {
		key := memoryKey(fp.Path)
		if _, ok := snapshot[key]; !ok {
			results = append(results, FileResult{
				File:       key,
				Declared:   fp.Path,
				HunksTotal: len(fp.Hunks()),
				Errors: []*Error{{
					Code:         CodeUnresolvedTarget,
					Message:      fmt.Sprintf("File %s does not exist", fp.Path),
					RelativePath: fp.Path,
					Probed:       []string{key},
				}},
			})
			continue
		}
		result, _ := applyFile(ws, key, fp, opts)
		results = append(results, result)
	}
	return ws.files, results
}

// ApplyMemoryPatch parses a raw diff and applies it to an in-memory map of files.
// A diff without any file blocks is reported as an EMPTY_PATCH_SET error.
func ApplyMemoryPatch(diff string, files map[string]string, opts Options, parseOpts ParseOptions) (map[string]string, []FileResult, error) {
	set, err := Parse(diff, parseOpts)
	if err != nil {
		return nil, nil, err
	}
	if set.Len() == 0 {
		return nil, nil, &Error{Code: CodeEmptyPatchSet, Message: "No patches found in the diff"}
	}
	updated, results := ApplyToMemory(set, files, opts)
	return updated, results, nil
}

func memoryKey(declared string) string {
	cleaned := path.Clean(strings.TrimPrefix(strings.TrimSpace(declared), "/"))
	if cleaned == "." {
		return ""
	}
	return cleaned
}

type memoryWorkspace struct {
	files map[string]string
}

func newMemoryWorkspace(files map[string]string) *memoryWorkspace {
	return &memoryWorkspace{files: files}
}

func (ws *memoryWorkspace) Load(key string) (*document, error) {
	content, ok := ws.files[key]
	if !ok {
		return nil, &Error{Code: CodeIOFailure, Message: fmt.Sprintf("failed to read %s: file does not exist", key), RelativePath: key}
	}
	return newDocument(key, key, content), nil
}

func (ws *memoryWorkspace) Commit(doc *document) error {
	ws.files[doc.path] = doc.render()
	return nil
}
