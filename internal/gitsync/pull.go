package gitsync

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/mergestate"
	"github.com/speakeasy-api/gitsync/internal/merging"
	"go.uber.org/zap"
)

// Pull fetches ref from remote and merges it into the checked out branch. An
// empty ref means the current branch. A ref naming any other branch is refused
// with ErrBranchNotCheckedOut, since the merge is written into the working
// tree. A remote without the branch is not an error. Conflicts are reported in the result, not as an error, and leave a
// merge session behind for the resolve/complete/abort workflow.
func (c *GitClient) Pull(ctx context.Context, auth Auth, remote, ref string) (*PullResult, error) {
	l := log.From(ctx)
	remote = c.remoteOrDefault(remote)

	if session, err := c.store.Load(ctx); err != nil {
		return nil, err
	} else if session != nil && session.InProgress {
		return nil, &StateError{Op: "pull", Err: ErrMergeInProgress}
	}

	current, err := c.repo.HeadBranch()
	if err != nil {
		return nil, err
	}
	if current == "" {
		return nil, &StateError{Op: "pull", Err: ErrDetachedHead}
	}
	branch := ref
	if branch == "" {
		branch = current
	}
	if branch != current {
		return nil, &StateError{Op: "pull " + branch, Err: ErrBranchNotCheckedOut}
	}

	l.Info("fetching", zap.String("remote", remote), zap.String("branch", branch))
	if err := c.repo.Fetch(ctx, remote, branch, auth.method()); errors.Is(err, git.ErrRemoteRefNotFound) {
		l.Info("remote branch not found; nothing to pull", zap.String("remote", remote), zap.String("branch", branch))
		return &PullResult{ConflictFiles: []string{}}, nil
	} else if err != nil {
		return nil, &TransportError{Op: "fetch", Remote: remote, Err: err}
	}

	ours, err := c.repo.BranchHash(branch)
	if err != nil {
		return nil, err
	}
	theirs, err := c.repo.RemoteBranchHash(remote, branch)
	if err != nil {
		return nil, err
	}
	if theirs == "" || theirs == ours {
		l.Info("already up to date")
		return &PullResult{ConflictFiles: []string{}}, nil
	}

	theirsRef := remote + "/" + branch
	res, err := c.engine.Merge(ctx, ours, theirs, merging.Options{
		Branch:    branch,
		OursRef:   branch,
		TheirsRef: theirsRef,
		Author:    c.identity.signature(),
	})

	var conflictErr *merging.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		return c.beginSession(ctx, branch, theirsRef, ours, theirs, conflictErr)
	case errors.Is(err, merging.ErrLocalChanges):
		return nil, &StateError{Op: "pull", Err: err}
	case err != nil:
		return nil, err
	}

	switch res.Outcome {
	case merging.OutcomeUpToDate:
		l.Info("already up to date")
	case merging.OutcomeFastForward:
		l.Success("fast-forwarded", zap.String("branch", branch), zap.String("commit", shortHash(res.Commit)))
	case merging.OutcomeMerged:
		l.Success("merged", zap.String("from", theirsRef), zap.String("commit", shortHash(res.Commit)))
	}

	return &PullResult{ConflictFiles: []string{}}, nil
}

func (c *GitClient) beginSession(ctx context.Context, branch, theirsRef, ours, theirs string, conflictErr *merging.ConflictError) (*PullResult, error) {
	session := &mergestate.Session{
		InProgress:    true,
		OursRef:       branch,
		TheirsRef:     theirsRef,
		OursOid:       ours,
		TheirsOid:     theirs,
		ConflictFiles: conflictErr.Paths(),
		StartedAt:     time.Now().UTC(),
	}
	for _, fc := range conflictErr.Conflicts {
		if fc.Kind != merging.ConflictBothModified {
			if session.ConflictKinds == nil {
				session.ConflictKinds = map[string]merging.ConflictKind{}
			}
			session.ConflictKinds[fc.Path] = fc.Kind
		}
		if !fc.Markers {
			session.MarkerFree = append(session.MarkerFree, fc.Path)
		}
	}

	if len(session.ConflictFiles) == 0 {
		marked, err := c.trackedFilesWithMarkers(ctx)
		if err != nil {
			return nil, err
		}
		session.ConflictFiles = marked
	}

	if err := c.store.Save(ctx, session); err != nil {
		return nil, &IOError{Op: "save merge session", Err: err}
	}

	l := log.From(ctx)
	for _, p := range session.ConflictFiles {
		l.WithAssociatedFile(p).Warn("conflict in "+p, zap.String("kind", string(session.Kind(p))))
	}

	return &PullResult{HadConflicts: true, ConflictFiles: session.ConflictFiles}, nil
}

// AbortMerge restores the working tree and index to the commit the merge
// started from and discards the merge session. Untracked files and refs are
// left alone.
func (c *GitClient) AbortMerge(ctx context.Context) error {
	l := log.From(ctx)

	session, err := c.store.Load(ctx)
	if err != nil {
		return err
	}

	head, err := c.repo.HeadHash()
	if err != nil {
		return err
	}

	reset := head
	if session != nil {
		reset = session.OursOid
		// The merge commit already landed on the branch; only the session remains.
		if session.Completing && session.MergeCommit == head {
			reset = head
		}
	}

	if reset != "" {
		if err := c.repo.ForceCheckout(reset); err != nil {
			return &IOError{Op: "reset working tree", Err: err}
		}
		l.Info("working tree reset", zap.String("commit", shortHash(reset)))
	}

	var result *multierror.Error
	if err := c.store.Clear(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.store.RemoveLegacyMergeHead(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	l.Success("merge aborted")
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
