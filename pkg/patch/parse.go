package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	removeMarker = "--- "
	addMarker    = "+++ "
	hunkMarker   = "@@"
)

// LineKind identifies how a hunk line participates in a change.
type LineKind byte

const (
	// LineContext is a line present in both versions of the file.
	LineContext LineKind = ' '
	// LineAdd is a line only present in the new version.
	LineAdd LineKind = '+'
	// LineRemove is a line only present in the old version.
	LineRemove LineKind = '-'
)

// Line is a single tagged hunk line with its tag stripped from Text.
type Line struct {
	Kind LineKind
	Text string
}

// Hunk captures one @@-delimited block of a unified diff.
//
// OldCount and NewCount are kept for diagnostics only; application is driven by
// the tagged lines.
type Hunk struct {
	Header        string
	OldStart      int
	OldCount      int
	NewStart      int
	NewCount      int
	Lines         []Line
	RawPatchLines []string
}

// FilePatch holds the raw lines of one file block in a diff.
type FilePatch struct {
	Path string
	Raw  []string
}

// Hunks parses the hunks contained in the block.
func (fp *FilePatch) Hunks() []Hunk {
	if fp == nil {
		return nil
	}
	return ParseHunks(fp.Raw)
}

// PatchSet is an insertion-ordered mapping from declared path to file block.
type PatchSet struct {
	order []string
	files map[string]*FilePatch
}

// NewPatchSet returns an empty PatchSet.
func NewPatchSet() *PatchSet {
	return &PatchSet{files: make(map[string]*FilePatch)}
}

// Len reports the number of distinct declared paths.
func (s *PatchSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Paths returns the declared paths in insertion order.
func (s *PatchSet) Paths() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Get returns the block declared for path.
func (s *PatchSet) Get(path string) (*FilePatch, bool) {
	if s == nil {
		return nil, false
	}
	fp, ok := s.files[path]
	return fp, ok
}

// Files returns the blocks in insertion order.
func (s *PatchSet) Files() []*FilePatch {
	if s == nil {
		return nil
	}
	out := make([]*FilePatch, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.files[path])
	}
	return out
}

// put stores fp. A path seen before keeps its position but takes the new block.
func (s *PatchSet) put(fp *FilePatch) {
	if _, exists := s.files[fp.Path]; !exists {
		s.order = append(s.order, fp.Path)
	}
	s.files[fp.Path] = fp
}

// ParseOptions tunes how Parse treats malformed input.
type ParseOptions struct {
	// Strict turns a "---" line without a following "+++" line into an error
	// instead of silently skipping the block.
	Strict bool
}

// Parse splits unified-diff text into a PatchSet keyed by the path written after
// each "--- " marker. Empty input yields an empty set.
func Parse(input string, opts ParseOptions) (*PatchSet, error) {
	set := NewPatchSet()
	if input == "" {
		return set, nil
	}
	lines := splitLines(input)

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, removeMarker) {
			i++
			continue
		}

		path := declaredPath(line)
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], addMarker) {
			if opts.Strict {
				return nil, &Error{
					Code:         CodeMalformedBlock,
					Message:      fmt.Sprintf("line %d: %q is not followed by a %q line", i+1, line, strings.TrimSpace(addMarker)),
					RelativePath: path,
					Line:         i + 1,
				}
			}
			i++
			continue
		}

		block := &FilePatch{Path: path, Raw: []string{line, lines[i+1]}}
		i += 2
		for i < len(lines) && !strings.HasPrefix(lines[i], removeMarker) {
			if isBlockLine(lines[i]) {
				block.Raw = append(block.Raw, lines[i])
			}
			i++
		}

		if block.Path != "" {
			set.put(block)
		}
	}
	return set, nil
}

// declaredPath extracts the path from a "--- " line: everything after the marker
// up to the first tab, with separators normalised to forward slashes.
func declaredPath(line string) string {
	path := strings.TrimPrefix(line, removeMarker)
	if idx := strings.IndexByte(path, '\t'); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimSpace(path)
	return strings.ReplaceAll(path, `\`, "/")
}

func isBlockLine(line string) bool {
	if strings.HasPrefix(line, hunkMarker) {
		return true
	}
	if line == "" {
		return false
	}
	switch LineKind(line[0]) {
	case LineContext, LineAdd, LineRemove:
		return true
	}
	return false
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks converts raw block lines into hunks. Lines before the first valid
// "@@" header, and lines following a header that cannot be parsed, are dropped.
func ParseHunks(raw []string) []Hunk {
	var (
		hunks   []Hunk
		current *Hunk
	)
	flush := func() {
		if current != nil {
			hunks = append(hunks, *current)
			current = nil
		}
	}

	for _, line := range raw {
		if strings.HasPrefix(line, hunkMarker) {
			flush()
			if h, ok := parseHunkHeader(line); ok {
				current = &h
			}
			continue
		}
		if current == nil || line == "" {
			continue
		}
		kind := LineKind(line[0])
		switch kind {
		case LineContext, LineAdd, LineRemove:
			current.Lines = append(current.Lines, Line{Kind: kind, Text: line[1:]})
			current.RawPatchLines = append(current.RawPatchLines, line)
		}
	}
	flush()
	return hunks
}

func parseHunkHeader(line string) (Hunk, bool) {
	match := hunkHeaderPattern.FindStringSubmatch(line)
	if match == nil {
		return Hunk{}, false
	}
	h := Hunk{
		Header:        line,
		OldStart:      atoiDefault(match[1], 0),
		OldCount:      atoiDefault(match[2], 1),
		NewStart:      atoiDefault(match[3], 0),
		NewCount:      atoiDefault(match[4], 1),
		RawPatchLines: []string{line},
	}
	return h, true
}

func atoiDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func splitLines(input string) []string {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
