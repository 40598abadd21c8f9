package gitsync

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/mergestate"
	"go.uber.org/zap"
)

// CompleteMerge records the resolved merge as a commit with the original ours
// and theirs commits as parents, moves the branch to it and clears the
// session. Calling it again after an interrupted completion finishes the job
// without creating a second commit.
func (c *GitClient) CompleteMerge(ctx context.Context, message string) (string, error) {
	l := log.From(ctx)

	session, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", &StateError{Op: "complete merge", Err: ErrNoMergeInProgress}
	}

	branchRef := "refs/heads/" + session.OursRef
	tip, err := c.repo.BranchHash(session.OursRef)
	if err != nil {
		return "", err
	}

	if session.Completing && session.MergeCommit != "" && tip == session.MergeCommit {
		l.Info("merge commit already recorded; finishing", zap.String("commit", shortHash(tip)))
		return tip, c.finishSession(ctx)
	}

	unresolved, err := c.unresolvedConflicts(ctx)
	if err != nil {
		return "", err
	}
	if len(unresolved) > 0 {
		return "", &StateError{Op: "complete merge", Err: &UnresolvedConflictsError{Paths: unresolved}}
	}

	if tip != session.OursOid {
		return "", fmt.Errorf("branch %s moved to %s since the merge started from %s", session.OursRef, shortHash(tip), shortHash(session.OursOid))
	}

	if err := c.repo.AddAll(); err != nil {
		return "", &IOError{Op: "stage", Err: err}
	}

	tree, err := c.repo.WriteIndexTree()
	if err != nil {
		return "", &IOError{Op: "write tree", Err: err}
	}

	if message == "" {
		message = defaultMergeMessage(session)
	}

	commit, err := c.repo.CommitTree(tree, []string{session.OursOid, session.TheirsOid}, message, c.identity.signature())
	if err != nil {
		return "", &IOError{Op: "create merge commit", Err: err}
	}

	session.Completing = true
	session.MergeCommit = commit
	if err := c.store.Save(ctx, session); err != nil {
		return "", &IOError{Op: "save merge session", Err: err}
	}

	if err := c.repo.UpdateRef(branchRef, commit, session.OursOid); err != nil {
		return "", fmt.Errorf("failed to move %s to merge commit: %w", session.OursRef, err)
	}

	if err := c.finishSession(ctx); err != nil {
		return "", err
	}

	l.Success("merge completed", zap.String("commit", shortHash(commit)))
	return commit, nil
}

func (c *GitClient) finishSession(ctx context.Context) error {
	var result *multierror.Error
	if err := c.store.Clear(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.store.RemoveLegacyMergeHead(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func defaultMergeMessage(s *mergestate.Session) string {
	return fmt.Sprintf("Merge %s into %s", s.TheirsRef, s.OursRef)
}
