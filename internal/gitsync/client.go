// Package gitsync keeps a local working copy in step with its remote and drives
// the conflict workflow: pull, inspect, resolve, complete or abort.
package gitsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/mergestate"
	"github.com/speakeasy-api/gitsync/internal/merging"
)

const DefaultRemote = "origin"

type GitClient struct {
	repo     *git.Repository
	store    *mergestate.Store
	engine   *merging.Engine
	identity Identity
	remote   string
}

type Option func(*GitClient)

// WithDefaultRemote sets the remote used when an operation is not given one.
func WithDefaultRemote(remote string) Option {
	return func(c *GitClient) {
		if remote != "" {
			c.remote = remote
		}
	}
}

func New(repo *git.Repository, identity Identity, opts ...Option) *GitClient {
	c := &GitClient{
		repo:     repo,
		store:    mergestate.New(repo.MetadataFS()),
		engine:   merging.NewEngine(repo),
		identity: identity,
		remote:   DefaultRemote,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open finds the repository containing dir and returns a client for it.
func Open(dir string, identity Identity, opts ...Option) (*GitClient, error) {
	repo, err := git.NewLocalRepository(dir)
	if err != nil {
		return nil, err
	}
	if repo.IsNil() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	return New(repo, identity, opts...), nil
}

func (c *GitClient) Repository() *git.Repository {
	return c.repo
}

// LockPath is where callers serialize concurrent processes on this repository.
func (c *GitClient) LockPath() string {
	return c.store.LockPath()
}

// CurrentBranch returns the checked out branch or ErrDetachedHead.
func (c *GitClient) CurrentBranch() (string, error) {
	branch, err := c.repo.HeadBranch()
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// MergeInProgress reports whether a merge session is outstanding.
func (c *GitClient) MergeInProgress(ctx context.Context) (bool, error) {
	session, err := c.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return session != nil && session.InProgress, nil
}

func (c *GitClient) remoteOrDefault(remote string) string {
	if remote == "" {
		return c.remote
	}
	return remote
}

func toCommitInfo(r git.CommitRecord) CommitInfo {
	message, _, _ := strings.Cut(strings.TrimSpace(r.Message), "\n")

	return CommitInfo{
		Hash:    shortHash(r.Hash),
		Message: message,
		Author:  r.Author,
		Date:    humanize.Time(r.When),
	}
}

func toCommitInfos(records []git.CommitRecord) []CommitInfo {
	infos := make([]CommitInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, toCommitInfo(r))
	}
	return infos
}
