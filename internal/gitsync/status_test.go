package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    git.StatusRow
		want   ChangeStatus
		listed bool
	}{
		{
			name:   "new file only on disk",
			row:    git.StatusRow{Head: git.HeadAbsent, Worktree: git.WorktreeModified, Stage: git.StageAbsent},
			want:   ChangeUntracked,
			listed: true,
		},
		{
			name:   "new file staged",
			row:    git.StatusRow{Head: git.HeadAbsent, Worktree: git.WorktreeModified, Stage: git.StageMatchesWorktree},
			want:   ChangeAdded,
			listed: true,
		},
		{
			name:   "staged then deleted from disk",
			row:    git.StatusRow{Head: git.HeadAbsent, Worktree: git.WorktreeAbsent, Stage: git.StageDiverged},
			want:   ChangeAdded,
			listed: true,
		},
		{
			name:   "deleted from disk",
			row:    git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeAbsent, Stage: git.StageMatchesHead},
			want:   ChangeDeleted,
			listed: true,
		},
		{
			name:   "deletion staged",
			row:    git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeAbsent, Stage: git.StageAbsent},
			want:   ChangeDeleted,
			listed: true,
		},
		{
			name:   "edited on disk",
			row:    git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeModified, Stage: git.StageMatchesHead},
			want:   ChangeModified,
			listed: true,
		},
		{
			name:   "edit staged",
			row:    git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeModified, Stage: git.StageMatchesWorktree},
			want:   ChangeModified,
			listed: true,
		},
		{
			name:   "staged change reverted on disk",
			row:    git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeUnmodified, Stage: git.StageDiverged},
			want:   ChangeModified,
			listed: true,
		},
		{
			name: "unchanged",
			row:  git.StatusRow{Head: git.HeadPresent, Worktree: git.WorktreeUnmodified, Stage: git.StageMatchesHead},
		},
		{
			name: "nowhere",
			row:  git.StatusRow{Head: git.HeadAbsent, Worktree: git.WorktreeAbsent, Stage: git.StageAbsent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, listed := classify(tt.row)
			assert.Equal(t, tt.listed, listed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"keep.txt": "keep\n", "edit.txt": "edit\n", "gone.txt": "gone\n", "staged.txt": "staged\n"})

	f.local.write(t, "edit.txt", "edited\n")
	f.local.write(t, "untracked.txt", "new\n")
	f.local.write(t, "added.txt", "added\n")
	f.local.write(t, "staged.txt", "staged change\n")
	require.NoError(t, os.Remove(filepath.Join(f.local.dir, "gone.txt")))

	require.NoError(t, f.client.Repository().StagePaths([]string{"added.txt", "staged.txt"}))

	status, err := f.client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasUncommittedChanges)
	assert.Equal(t, []FileChange{
		{Path: "added.txt", Status: ChangeAdded},
		{Path: "edit.txt", Status: ChangeModified},
		{Path: "gone.txt", Status: ChangeDeleted},
		{Path: "staged.txt", Status: ChangeModified},
		{Path: "untracked.txt", Status: ChangeUntracked},
	}, status.Changes)
}

func TestStatus_Clean(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"a.txt": "a\n"})

	status, err := f.client.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasUncommittedChanges)
	assert.Empty(t, status.Changes)

	conflicts, err := f.client.GetConflictFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
