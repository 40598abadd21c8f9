package gitsync

import (
	"context"

	"github.com/speakeasy-api/gitsync/internal/git"
)

// Status reports every path whose head, index or working tree state differs.
func (c *GitClient) Status(_ context.Context) (*StatusResult, error) {
	rows, err := c.repo.StatusMatrix()
	if err != nil {
		return nil, &IOError{Op: "status", Err: err}
	}

	changes := []FileChange{}
	for _, row := range rows {
		if status, ok := classify(row); ok {
			changes = append(changes, FileChange{Path: row.Path, Status: status})
		}
	}

	return &StatusResult{
		Changes:               changes,
		HasUncommittedChanges: len(changes) > 0,
	}, nil
}

func classify(row git.StatusRow) (ChangeStatus, bool) {
	switch {
	case row.Head == git.HeadAbsent && row.Stage == git.StageAbsent:
		if row.Worktree == git.WorktreeAbsent {
			return "", false
		}
		return ChangeUntracked, true
	case row.Head == git.HeadAbsent:
		return ChangeAdded, true
	case row.Worktree == git.WorktreeAbsent:
		return ChangeDeleted, true
	case row.Worktree != git.WorktreeUnmodified || row.Stage != git.StageMatchesHead:
		return ChangeModified, true
	}
	return "", false
}
