package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/stretchr/testify/require"
)

var (
	testIdentity = Identity{Name: "tester", Email: "tester@example.com"}
	testClock    atomic.Int64
	epoch        = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// workdir is a non-bare clone used either as the client's repository or as
// another developer pushing to the shared remote.
type workdir struct {
	dir  string
	repo *gitc.Repository
}

type fixture struct {
	remoteDir string
	upstream  *workdir
	local     *workdir
	client    *GitClient
}

// newFixture creates a bare remote on main seeded with files, a second clone
// that plays the part of another collaborator, and the local clone under test.
func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()

	root := t.TempDir()
	remoteDir := filepath.Join(root, "remote.git")
	_, err := gitc.PlainInitWithOptions(remoteDir, &gitc.PlainInitOptions{
		Bare: true,
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)

	seedDir := filepath.Join(root, "seed")
	seed, err := gitc.PlainInitWithOptions(seedDir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)
	_, err = seed.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	upstream := &workdir{dir: seedDir, repo: seed}
	upstream.commit(t, files, nil, "initial")
	upstream.push(t)

	localDir := filepath.Join(root, "local")
	local, err := gitc.PlainClone(localDir, false, &gitc.CloneOptions{URL: remoteDir})
	require.NoError(t, err)

	lw := &workdir{dir: localDir, repo: local}
	return &fixture{
		remoteDir: remoteDir,
		upstream:  upstream,
		local:     lw,
		client:    New(git.FromGoGit(local), testIdentity),
	}
}

// commit writes files, removes deletes and commits on the checked out branch.
// Commit times increase monotonically so history order is deterministic.
func (w *workdir) commit(t *testing.T, files map[string]string, deletes []string, message string) string {
	t.Helper()

	wt, err := w.repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		w.write(t, name, content)
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	for _, name := range deletes {
		_, err := wt.Remove(name)
		require.NoError(t, err)
	}

	when := epoch.Add(time.Duration(testClock.Add(1)) * time.Minute)
	hash, err := wt.Commit(message, &gitc.CommitOptions{
		Author: &object.Signature{Name: "someone", Email: "someone@example.com", When: when},
	})
	require.NoError(t, err)
	return hash.String()
}

func (w *workdir) push(t *testing.T) {
	t.Helper()
	err := w.repo.Push(&gitc.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{"refs/heads/main:refs/heads/main"},
	})
	require.NoError(t, err)
}

func (w *workdir) write(t *testing.T, name, content string) {
	t.Helper()
	full := filepath.Join(w.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func (w *workdir) read(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(w.dir, name))
	require.NoError(t, err)
	return string(content)
}

func (w *workdir) exists(name string) bool {
	_, err := os.Stat(filepath.Join(w.dir, name))
	return err == nil
}

func (w *workdir) head(t *testing.T) string {
	t.Helper()
	ref, err := w.repo.Head()
	require.NoError(t, err)
	return ref.Hash().String()
}

func (w *workdir) commitObject(t *testing.T, hash string) *object.Commit {
	t.Helper()
	c, err := w.repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	return c
}

// conflicted pulls a change to a.txt that collides with a local edit.
func conflicted(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t, map[string]string{"a.txt": "line1\nline2\n"})
	f.upstream.commit(t, map[string]string{"a.txt": "theirs\nline2\n"}, nil, "upstream edit")
	f.upstream.push(t)
	f.local.commit(t, map[string]string{"a.txt": "ours\nline2\n"}, nil, "local edit")

	res, err := f.client.Pull(context.Background(), Auth{}, "origin", "main")
	require.NoError(t, err)
	require.True(t, res.HadConflicts)
	return f
}
