package gitsync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speakeasy-api/gitsync/internal/merging"
)

var (
	ErrNotRepository       = errors.New("not a git repository")
	ErrNoMergeInProgress   = errors.New("no merge in progress")
	ErrMergeInProgress     = errors.New("a merge is in progress; complete or abort it first")
	ErrDetachedHead        = errors.New("HEAD is not on a branch")
	ErrBranchNotCheckedOut = errors.New("branch is not checked out")
	ErrLocalChanges        = merging.ErrLocalChanges
	ErrUnresolvedConflicts = errors.New("unresolved conflicts remain")
	ErrNothingToCommit     = errors.New("nothing to commit")
)

// StateError reports an operation invoked in the wrong phase of the merge
// workflow. Nothing was committed or mutated when it is returned.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func IsStateError(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

type UnresolvedConflictsError struct {
	Paths []string
}

func (e *UnresolvedConflictsError) Error() string {
	return fmt.Sprintf("%d unresolved conflict(s): %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *UnresolvedConflictsError) Count() int {
	return len(e.Paths)
}

func (e *UnresolvedConflictsError) Is(target error) bool {
	return target == ErrUnresolvedConflicts
}

// TransportError wraps a network or authentication failure talking to a remote.
type TransportError struct {
	Op     string
	Remote string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Remote, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure reading or writing a blob or working file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
