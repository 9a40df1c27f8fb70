// Package discovery locates library directories inside a project tree.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLibraryDir is the directory name searched for when none is configured.
const DefaultLibraryDir = "STLport-4.5.3"

// expectedParents are the conventional locations of the library below a
// project root, checked before any tree walk.
var expectedParents = []string{
	filepath.Join("Generals", "Code", "Libraries"),
	filepath.Join("GeneralsMD", "Code", "Libraries", "Source"),
	filepath.Join("GeneralsMD", "Code", "Libraries"),
}

// skippedDirs are never descended into while walking.
var skippedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
}

// Context inspects a project root. The stat function is injectable so tests can
// run against fixture trees or fakes.
type Context struct {
	root string
	stat func(string) (fs.FileInfo, error)
}

// NewContext constructs a Context rooted at the provided path. Paths are
// checked with os.Stat by default.
func NewContext(root string) *Context {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return &Context{
		root: root,
		stat: os.Stat,
	}
}

// NewContextWithStat allows tests to override how directory existence is checked.
func NewContextWithStat(root string, stat func(string) (fs.FileInfo, error)) *Context {
	ctx := NewContext(root)
	if stat != nil {
		ctx.stat = stat
	}
	return ctx
}

// Root returns the directory being inspected.
func (c *Context) Root() string {
	return c.root
}

// HasDir reports whether a directory exists relative to the root.
func (c *Context) HasDir(relPath string) bool {
	if relPath == "" {
		return false
	}
	info, err := c.stat(filepath.Join(c.root, relPath))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ExpectedPaths lists the conventional locations for a library named name, in
// probe order.
func ExpectedPaths(name string) []string {
	paths := make([]string, 0, len(expectedParents))
	for _, parent := range expectedParents {
		paths = append(paths, filepath.Join(parent, name))
	}
	return paths
}

// FindLibraryDirs returns every directory named name. The conventional
// locations win; the tree is only walked when none of them exist.
func (c *Context) FindLibraryDirs(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLibraryDir
	}

	var found []string
	seen := make(map[string]struct{})
	add := func(path string) {
		cleaned := filepath.Clean(path)
		if _, ok := seen[cleaned]; ok {
			return
		}
		seen[cleaned] = struct{}{}
		found = append(found, cleaned)
	}

	for _, rel := range ExpectedPaths(name) {
		if c.HasDir(rel) {
			add(filepath.Join(c.root, rel))
		}
	}
	if len(found) > 0 {
		return found
	}

	_ = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := skippedDirs[d.Name()]; skip {
			return filepath.SkipDir
		}
		if d.Name() == name && path != c.root {
			add(path)
			return filepath.SkipDir
		}
		return nil
	})
	return found
}
