package git

import (
	"os"
	"path/filepath"
	"testing"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a temporary git repository with an initial commit on "main".
func initTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()

	dir := t.TempDir()

	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)

	r := FromGoGit(repo)
	commitFile(t, r, dir, "README.md", "# test", "initial commit")

	return r, dir
}

func commitFile(t *testing.T, r *Repository, dir, name, content, message string) string {
	t.Helper()

	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))

	wt, err := r.repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit(message, &gitc.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@test.com",
		},
	})
	require.NoError(t, err)

	return hash.String()
}

func TestHeadBranch_NilRepo(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	branch, err := r.HeadBranch()
	require.NoError(t, err)
	assert.Empty(t, branch)
}

func TestHeadBranch_OnBranch(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	branch, err := r.HeadBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestHeadBranch_DetachedHEAD(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	// Detach HEAD by checking out a specific commit
	head, err := r.repo.Head()
	require.NoError(t, err)

	wt, err := r.repo.Worktree()
	require.NoError(t, err)

	err = wt.Checkout(&gitc.CheckoutOptions{
		Hash: head.Hash(),
	})
	require.NoError(t, err)

	branch, err := r.HeadBranch()
	require.NoError(t, err)
	assert.Empty(t, branch)
}

func TestBranchHash(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	head, err := r.HeadHash()
	require.NoError(t, err)

	hash, err := r.BranchHash("main")
	require.NoError(t, err)
	assert.Equal(t, head, hash)

	missing, err := r.BranchHash("nope")
	require.NoError(t, err)
	assert.Empty(t, missing)

	remote, err := r.RemoteBranchHash("origin", "main")
	require.NoError(t, err)
	assert.Empty(t, remote)
}

func TestMetadataFS_OnDisk(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	assert.Equal(t, filepath.Join(dir, ".git"), r.MetadataFS().Root())
	assert.Equal(t, dir, r.Root())
}

func TestWriteTreeFromFiles_RoundTrip(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	files := map[string]TreeEntry{}
	for name, content := range map[string]string{
		"a.txt":       "a",
		"a/x.txt":     "x",
		"b.txt":       "b",
		"a/deep/y.sh": "#!/bin/sh",
	} {
		hash, err := r.WriteBlob([]byte(content))
		require.NoError(t, err)
		mode := filemode.Regular
		if filepath.Ext(name) == ".sh" {
			mode = filemode.Executable
		}
		files[name] = TreeEntry{Name: name, Mode: mode, Hash: hash}
	}

	tree, err := r.WriteTreeFromFiles(files)
	require.NoError(t, err)

	commit, err := r.CommitTree(tree, nil, "tree", Signature{Name: "test", Email: "test@test.com"})
	require.NoError(t, err)

	read, err := r.CommitFiles(commit)
	require.NoError(t, err)
	assert.Equal(t, files, read)

	content, err := r.ReadFileAtCommit(commit, "a/deep/y.sh")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh", string(content))

	_, err = r.ReadFileAtCommit(commit, "missing.txt")
	require.ErrorIs(t, err, ErrPathNotInCommit)
}

func TestStatusMatrix(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staged.txt"), []byte("staged"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))
	require.NoError(t, r.StagePath("staged.txt"))

	rows, err := r.StatusMatrix()
	require.NoError(t, err)

	assert.Equal(t, []StatusRow{
		{Path: ".gitignore", Head: HeadAbsent, Worktree: WorktreeModified, Stage: StageAbsent},
		{Path: "README.md", Head: HeadPresent, Worktree: WorktreeModified, Stage: StageMatchesHead},
		{Path: "new.txt", Head: HeadAbsent, Worktree: WorktreeModified, Stage: StageAbsent},
		{Path: "staged.txt", Head: HeadAbsent, Worktree: WorktreeModified, Stage: StageMatchesWorktree},
	}, rows)
}

func TestStatusMatrix_DeletedFile(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "README.md")))

	rows, err := r.StatusMatrix()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, WorktreeAbsent, rows[0].Worktree)
	assert.Equal(t, StageMatchesHead, rows[0].Stage)
}

func TestStatusMatrix_CleanIndex(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	rows, err := r.StatusMatrix()
	require.NoError(t, err)
	assert.Equal(t, []StatusRow{
		{Path: "README.md", Head: HeadPresent, Worktree: WorktreeUnmodified, Stage: StageMatchesHead},
	}, rows)

	unmerged, err := r.UnmergedPaths()
	require.NoError(t, err)
	assert.Empty(t, unmerged)

	head, err := r.HeadHash()
	require.NoError(t, err)
	headTree, err := r.TreeHash(head)
	require.NoError(t, err)

	tree, err := r.WriteIndexTree()
	require.NoError(t, err)
	assert.Equal(t, headTree, tree)
}

func TestStagePath_WritesStageZero(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))
	require.NoError(t, r.StagePaths([]string{"README.md", "new.txt"}))

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	for _, e := range idx.Entries {
		assert.EqualValues(t, 0, e.Stage, e.Name)
	}

	rows, err := r.StatusMatrix()
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, StageMatchesWorktree, row.Stage, row.Path)
	}
}

func TestSetConflictState_AndStage(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)

	require.NoError(t, r.SetConflictState("README.md", []byte("base"), []byte("ours"), []byte("theirs"), filemode.Regular))

	unmerged, err := r.IsUnmerged("README.md")
	require.NoError(t, err)
	assert.True(t, unmerged)

	_, err = r.WriteIndexTree()
	require.ErrorIs(t, err, ErrUnmergedIndex)

	rows, err := r.StatusMatrix()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StageDiverged, rows[0].Stage)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("resolved"), 0o644))
	require.NoError(t, r.StagePath("README.md"))

	unmerged, err = r.IsUnmerged("README.md")
	require.NoError(t, err)
	assert.False(t, unmerged)

	_, err = r.WriteIndexTree()
	require.NoError(t, err)
}

func TestSetConflictState_MissingSide(t *testing.T) {
	t.Parallel()

	r, _ := initTestRepo(t)

	require.NoError(t, r.SetConflictState("README.md", []byte("base"), nil, []byte("theirs"), filemode.Regular))

	idx, err := r.repo.Storer.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.EqualValues(t, 1, idx.Entries[0].Stage)
	assert.EqualValues(t, 3, idx.Entries[1].Stage)
}

func TestAddAll(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	commitFile(t, r, dir, "gone.txt", "bye", "add gone")

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.txt")))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "fresh.txt"), []byte("fresh"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("noise"), 0o644))

	require.NoError(t, r.AddAll())

	paths, err := r.IndexPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "README.md", "sub/fresh.txt"}, paths)
}

func TestForceCheckout(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	head, err := r.HeadHash()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("dirty"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("introduced"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("untracked"), 0o644))
	require.NoError(t, r.StagePaths([]string{"README.md", "extra.txt"}))

	require.NoError(t, r.ForceCheckout(head))

	content, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# test", string(content))

	assert.NoFileExists(t, filepath.Join(dir, "extra.txt"))
	assert.FileExists(t, filepath.Join(dir, "scratch.txt"))

	paths, err := r.IndexPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, paths)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	r, dir := initTestRepo(t)
	first, err := r.HeadHash()
	require.NoError(t, err)

	second := commitFile(t, r, dir, "second.txt", "2", "second commit\n\nbody")

	ok, err := r.IsAncestor(first, second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAncestor(second, first)
	require.NoError(t, err)
	assert.False(t, ok)

	base, err := r.MergeBase(first, second)
	require.NoError(t, err)
	assert.Equal(t, first, base)

	commits, err := r.CommitsBetween(second, first, 0)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, second, commits[0].Hash)
	assert.Equal(t, "test", commits[0].Author)

	all, err := r.Log(second, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := r.Log(second, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	changes, err := r.DiffCommits(first, second)
	require.NoError(t, err)
	assert.Equal(t, []TreeChange{{Action: ChangeAdded, Path: "second.txt"}}, changes)
}
