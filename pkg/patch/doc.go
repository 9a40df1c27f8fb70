// Package patch parses multi-file unified diffs and applies their hunks to text files.
//
// The package is split the same way a patch run flows: Parse turns diff text into a
// PatchSet, a Resolver locates the file each entry targets under a possibly reorganised
// tree, and ApplyHunks verifies and applies hunks against a file's current lines. Hunks
// that do not match are reported and skipped instead of aborting the file, so a single
// stale hunk never blocks the rest of a patch. Filesystem and in-memory entry points
// share the same engine which makes it straightforward to embed in tooling and tests.
package patch
