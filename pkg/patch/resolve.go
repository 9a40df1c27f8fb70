package patch

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultNestedDir is the conventional sub-directory that holds library sources
	// beneath a library root.
	DefaultNestedDir = "stlport"
)

// DefaultGroups lists the source groupings that live under DefaultNestedDir.
var DefaultGroups = []string{"stl", "config"}

// Resolver maps a declared diff path to a file under a root directory by probing
// a fixed, ordered set of candidate locations. Exists is injectable so the probe
// order can be exercised without touching a filesystem.
type Resolver struct {
	NestedDir string
	Groups    []string
	Exists    func(path string) bool
}

// Resolution is the outcome of a lookup. Probed lists every distinct candidate in
// the order it was tried, whether or not a match was found.
type Resolution struct {
	Path   string
	Found  bool
	Probed []string
}

// DefaultResolver returns a Resolver backed by os.Stat.
func DefaultResolver() Resolver {
	return Resolver{
		NestedDir: DefaultNestedDir,
		Groups:    append([]string(nil), DefaultGroups...),
		Exists:    pathExists,
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolve returns the first existing candidate for declared under root.
func (r Resolver) Resolve(declared, root string) Resolution {
	exists := r.Exists
	if exists == nil {
		exists = pathExists
	}
	nested := r.NestedDir
	if nested == "" {
		nested = DefaultNestedDir
	}

	var res Resolution
	seen := make(map[string]struct{})
	probe := func(candidate string) bool {
		if _, ok := seen[candidate]; !ok {
			seen[candidate] = struct{}{}
			res.Probed = append(res.Probed, candidate)
		}
		if exists(candidate) {
			res.Path = candidate
			res.Found = true
			return true
		}
		return false
	}

	rel := declared
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		rel = rel[1:]
	}
	native := filepath.FromSlash(rel)

	nestedPath := filepath.Join(root, nested, native)
	if probe(nestedPath) {
		return res
	}
	if probe(filepath.Join(root, native)) {
		return res
	}
	for _, group := range r.Groups {
		if strings.HasPrefix(native, group+string(filepath.Separator)) {
			if probe(nestedPath) {
				return res
			}
		}
	}

	forward := strings.ReplaceAll(native, `\`, "/")
	forward = filepath.ToSlash(forward)
	if probe(filepath.Clean(filepath.Join(root, nested, filepath.FromSlash(forward)))) {
		return res
	}
	return res
}
