package gitsync

import (
	"context"

	"github.com/speakeasy-api/gitsync/internal/log"
	"go.uber.org/zap"
)

// CommitAll stages every change in the working tree and commits it on the
// current branch.
func (c *GitClient) CommitAll(ctx context.Context, message string) (string, error) {
	if inProgress, err := c.MergeInProgress(ctx); err != nil {
		return "", err
	} else if inProgress {
		return "", &StateError{Op: "commit", Err: ErrMergeInProgress}
	}

	branch, err := c.CurrentBranch()
	if err != nil {
		return "", &StateError{Op: "commit", Err: err}
	}

	if err := c.repo.AddAll(); err != nil {
		return "", &IOError{Op: "stage", Err: err}
	}

	tree, err := c.repo.WriteIndexTree()
	if err != nil {
		return "", &IOError{Op: "write tree", Err: err}
	}

	parent, err := c.repo.BranchHash(branch)
	if err != nil {
		return "", err
	}
	parentTree, err := c.repo.TreeHash(parent)
	if err != nil {
		return "", err
	}
	if parent != "" && parentTree == tree {
		return "", &StateError{Op: "commit", Err: ErrNothingToCommit}
	}

	commit, err := c.repo.CommitTree(tree, []string{parent}, message, c.identity.signature())
	if err != nil {
		return "", &IOError{Op: "create commit", Err: err}
	}
	if err := c.repo.UpdateRef("refs/heads/"+branch, commit, parent); err != nil {
		return "", err
	}

	log.From(ctx).Success("committed", zap.String("branch", branch), zap.String("commit", shortHash(commit)))
	return commit, nil
}

// Push sends the branch to the remote. Empty arguments mean the default remote
// and the current branch.
func (c *GitClient) Push(ctx context.Context, auth Auth, remote, ref string) error {
	remote = c.remoteOrDefault(remote)

	if ref == "" {
		branch, err := c.CurrentBranch()
		if err != nil {
			return &StateError{Op: "push", Err: err}
		}
		ref = branch
	}

	if err := c.repo.Push(ctx, remote, ref, auth.method()); err != nil {
		return &TransportError{Op: "push", Remote: remote, Err: err}
	}

	log.From(ctx).Success("pushed", zap.String("remote", remote), zap.String("branch", ref))
	return nil
}

// Log returns up to limit commits from HEAD, newest first.
func (c *GitClient) Log(_ context.Context, limit int) ([]CommitInfo, error) {
	head, err := c.repo.HeadHash()
	if err != nil {
		return nil, err
	}
	records, err := c.repo.Log(head, limit)
	if err != nil {
		return nil, err
	}
	return toCommitInfos(records), nil
}
