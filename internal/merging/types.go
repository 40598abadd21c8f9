package merging

import (
	"fmt"
	"strings"
)

// MergeStatus represents the outcome of a file merge operation.
type MergeStatus string

const (
	MergeStatusClean       MergeStatus = "CLEAN"
	MergeStatusConflict    MergeStatus = "CONFLICT"
	MergeStatusBinary      MergeStatus = "BINARY"
	MergeStatusFastForward MergeStatus = "FAST_FORWARD" // One side equals the base
)

// MergeResult holds the result of merging a single file.
type MergeResult struct {
	Path         string
	Content      []byte
	Status       MergeStatus
	HasConflicts bool
	Conflicts    []Conflict
}

// Conflict represents a specific conflict region in a file.
type Conflict struct {
	StartLine int
	EndLine   int
	Message   string
}

// Merger abstracts the algorithm for 3-way merging.
type Merger interface {
	// Merge performs a 3-way merge: Base + (Ours-Base) + (Theirs-Base)
	Merge(base, ours, theirs []byte) (*MergeResult, error)
}

// HistoryProvider abstracts the retrieval of historical file versions.
type HistoryProvider interface {
	// Blob retrieves the content of a blob recorded in some commit.
	Blob(blobHash string) ([]byte, error)
}

// ConflictKind classifies a path the tree merge could not settle.
type ConflictKind string

const (
	ConflictBothModified  ConflictKind = "both_modified"
	ConflictDeletedByUs   ConflictKind = "deleted_by_us"
	ConflictDeletedByThem ConflictKind = "deleted_by_them"
	ConflictBothAdded     ConflictKind = "both_added"
)

// FileConflict is one conflicted path. Markers is false when nothing was
// written into the working file (modify/delete and binary conflicts).
type FileConflict struct {
	Path    string
	Kind    ConflictKind
	Markers bool
}

// ConflictError is returned by Engine.Merge when the merge stopped with conflicts.
// The working tree and index have already been updated with everything that merged cleanly.
type ConflictError struct {
	Conflicts []FileConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %d file(s): %s", len(e.Conflicts), strings.Join(e.Paths(), ", "))
}

// Paths returns the conflicted paths in report order.
func (e *ConflictError) Paths() []string {
	paths := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		paths = append(paths, c.Path)
	}
	return paths
}

// Outcome describes what Engine.Merge did to the branch.
type Outcome string

const (
	OutcomeUpToDate    Outcome = "up_to_date"
	OutcomeFastForward Outcome = "fast_forward"
	OutcomeMerged      Outcome = "merged"
)

type Result struct {
	Outcome Outcome
	// Commit is the new branch tip (the incoming commit for fast-forwards).
	Commit string
}
