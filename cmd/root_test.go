package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("a.txt")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gitc.CommitOptions{Author: &object.Signature{Name: "test", Email: "test@example.com"}})
	require.NoError(t, err)

	root := CmdForTest("0.0.1", "linux_x86_64")
	run := func(args ...string) error {
		root.SetArgs(append(args, "--dir", dir))
		return root.ExecuteContext(context.Background())
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b\n"), 0o644))

	require.NoError(t, run("status"))
	require.NoError(t, run("commit", "-m", "add b"))
	require.NoError(t, run("log", "-n", "1"))
	require.NoError(t, run("conflicts"))

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "add b", commit.Message)

	err = run("complete")
	require.ErrorIs(t, err, gitsync.ErrNoMergeInProgress)

	err = run("resolve", "a.txt", "--with", "both")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resolution")
}

func TestRenderConflict(t *testing.T) {
	t.Parallel()

	out := renderConflict(gitsync.ConflictFile{Path: "docs/readme.md", Status: gitsync.ConflictDeletedByThem})
	assert.True(t, strings.HasSuffix(out, "docs/readme.md"))
	assert.Contains(t, out, "deleted_by_them")
	assert.Contains(t, out, "unresolved")

	out = renderConflict(gitsync.ConflictFile{Path: "a.txt", Status: gitsync.ConflictBothModified, Resolved: true})
	assert.Contains(t, out, "resolved")
	assert.NotContains(t, out, "unresolved")
}
