package patch

import (
	"strings"
	"testing"
)

func TestDescribeHunkStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		statuses []HunkStatus
		want     string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:     "only applied",
			statuses: []HunkStatus{{Number: 1, Status: "applied"}, {Number: 2, Status: "applied"}},
			want:     "Hunks applied: 1, 2.",
		},
		{
			name:     "mixed",
			statuses: []HunkStatus{{Number: 1, Status: "applied"}, {Number: 3, Status: "failed"}},
			want:     "Hunks applied: 1. Hunks failed: 3.",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DescribeHunkStatuses(tc.statuses); got != tc.want {
				t.Fatalf("DescribeHunkStatuses() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatErrorForMismatch(t *testing.T) {
	t.Parallel()

	err := &Error{
		Code:         CodeContextMismatch,
		Message:      "Context mismatch at line 4",
		RelativePath: "stl/_algobase.h",
		Expected:     "#define OLD",
		Actual:       "#define NEWER",
		FailedHunk:   &FailedHunk{Number: 2, RawPatchLines: []string{"@@ -4,1 +4,1 @@", "-#define OLD", "+#define NEW"}},
	}

	got := FormatError(err)
	for _, want := range []string{
		"stl/_algobase.h: Context mismatch at line 4 (hunk 2)",
		"Expected: '#define OLD'",
		"Found: '#define NEWER'",
		"Offending hunk:",
		"+#define NEW",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("FormatError() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatErrorListsProbedPaths(t *testing.T) {
	t.Parallel()

	err := &Error{
		Code:         CodeUnresolvedTarget,
		Message:      "File does not exist",
		RelativePath: "/stl/x.h",
		Probed:       []string{"/root/stlport/stl/x.h", "/root/stl/x.h"},
	}
	got := FormatError(err)
	if !strings.Contains(got, "Tried paths:\n  - /root/stlport/stl/x.h\n  - /root/stl/x.h") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestFormatErrorHandlesNil(t *testing.T) {
	t.Parallel()

	if got := FormatError(nil); got != "Unknown error occurred." {
		t.Fatalf("FormatError(nil) = %q", got)
	}
}
