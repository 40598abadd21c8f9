package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

var ErrNotInitialized = errors.New("git repository not initialized")

type Repository struct {
	repo     *gitc.Repository
	metadata billy.Filesystem
}

// NewLocalRepository will attempt to open a pre-existing git repository in the given directory
// If no repository is found, it will return an empty Repository
func NewLocalRepository(dir string) (*Repository, error) {
	repo, err := gitc.PlainOpenWithOptions(dir, &gitc.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, gitc.ErrRepositoryNotExists) {
		return &Repository{}, nil
	} else if err != nil {
		return &Repository{}, fmt.Errorf("git: %w", err)
	}

	return FromGoGit(repo), nil
}

// FromGoGit wraps an already opened go-git repository. Repositories backed by
// memory storage get an in-memory metadata filesystem.
func FromGoGit(repo *gitc.Repository) *Repository {
	r := &Repository{repo: repo}
	if s, ok := repo.Storer.(*filesystem.Storage); ok {
		r.metadata = s.Filesystem()
	} else {
		r.metadata = memfs.New()
	}
	return r
}

func (r *Repository) IsNil() bool {
	return r.repo == nil
}

// MetadataFS is the repository's metadata area (the .git directory for on-disk repositories).
func (r *Repository) MetadataFS() billy.Filesystem {
	return r.metadata
}

// Root returns the worktree root on disk, or "" for in-memory worktrees.
func (r *Repository) Root() string {
	fs, err := r.worktreeFS()
	if err != nil {
		return ""
	}
	return fs.Root()
}

func (r *Repository) worktreeFS() (billy.Filesystem, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("git: failed to get worktree: %w", err)
	}
	return wt.Filesystem, nil
}

func (r *Repository) HeadHash() (string, error) {
	if r.IsNil() {
		return "", nil
	}

	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("git: %w", err)
	}

	return head.Hash().String(), nil
}

// HeadBranch returns the short name of the branch HEAD points at, including an
// unborn branch. It returns "" when HEAD is detached.
func (r *Repository) HeadBranch() (string, error) {
	if r.IsNil() {
		return "", nil
	}

	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("git: failed to read HEAD: %w", err)
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", nil
	}

	return head.Target().Short(), nil
}

// BranchHash returns the tip of a local branch, or "" if the branch does not exist yet.
func (r *Repository) BranchHash(branch string) (string, error) {
	return r.refHash(plumbing.NewBranchReferenceName(branch))
}

// RemoteBranchHash returns the tip of a remote-tracking branch, or "" if it does not exist.
func (r *Repository) RemoteBranchHash(remote, branch string) (string, error) {
	return r.refHash(plumbing.NewRemoteReferenceName(remote, branch))
}

func (r *Repository) refHash(name plumbing.ReferenceName) (string, error) {
	if r.IsNil() {
		return "", ErrNotInitialized
	}

	ref, err := r.repo.Reference(name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("git: failed to resolve %s: %w", name, err)
	}

	return ref.Hash().String(), nil
}
