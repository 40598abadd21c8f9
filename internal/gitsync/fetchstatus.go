package gitsync

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/log"
	"go.uber.org/zap"
)

// GetFetchStatus fetches branch from the default remote and compares it with
// the local branch without merging anything. Incoming files are the paths
// that differ between the local tip and the remote tip.
func (c *GitClient) GetFetchStatus(ctx context.Context, auth Auth, branch string) (*FetchStatusResult, error) {
	result := &FetchStatusResult{
		IncomingCommits: []CommitInfo{},
		IncomingFiles:   []IncomingFile{},
	}

	if branch == "" {
		current, err := c.CurrentBranch()
		if err != nil {
			return nil, &StateError{Op: "fetch status", Err: err}
		}
		branch = current
	}

	err := c.repo.Fetch(ctx, c.remote, branch, auth.method())
	if errors.Is(err, git.ErrRemoteRefNotFound) {
		log.From(ctx).Info("remote branch not found", zap.String("remote", c.remote), zap.String("branch", branch))
		return result, nil
	} else if err != nil {
		return nil, &TransportError{Op: "fetch", Remote: c.remote, Err: err}
	}

	local, err := c.repo.BranchHash(branch)
	if err != nil {
		return nil, err
	}
	remote, err := c.repo.RemoteBranchHash(c.remote, branch)
	if err != nil {
		return nil, err
	}
	if remote == "" || remote == local {
		return result, nil
	}

	behind, err := c.repo.CommitsBetween(remote, local, 0)
	if err != nil {
		return nil, err
	}
	ahead, err := c.repo.CommitsBetween(local, remote, 0)
	if err != nil {
		return nil, err
	}

	result.BehindCount = len(behind)
	result.AheadCount = len(ahead)
	result.IncomingCommits = toCommitInfos(behind)

	if len(behind) > 0 {
		changes, err := c.repo.DiffCommits(local, remote)
		if err != nil {
			return nil, err
		}
		result.IncomingFiles = lo.Map(changes, func(ch git.TreeChange, _ int) IncomingFile {
			return IncomingFile{Status: ch.Action, Path: ch.Path}
		})
	}

	return result, nil
}
