// Package merging implements the non-aborting merge used by gitsync.
//
// It handles the 3-way merge between:
// 1. Base: the merge base of the two commits (or an empty tree for unrelated histories).
// 2. Ours: the checked out branch tip.
// 3. Theirs: the incoming remote-tracking tip.
//
// The package coordinates:
// - Fast-forwarding the working tree, index and branch when no merge commit is needed.
// - Merging trees path by path and file content with diff3.
// - Leaving conflicts in place (markers plus index stages) instead of discarding progress.
// - Parsing and splitting conflict marker text.
package merging
