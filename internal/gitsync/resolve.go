package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/merging"
	"go.uber.org/zap"
)

// ResolveConflict settles a single path. Ours and theirs overwrite the working
// file with that side's committed content (or delete it when that side deleted
// the path) and stage the result. Mark-resolved stages the file as it is.
func (c *GitClient) ResolveConflict(ctx context.Context, path string, resolution Resolution) error {
	switch resolution {
	case ResolutionMarkResolved:
	case ResolutionOurs, ResolutionTheirs:
		oid, err := c.sideOid(ctx, resolution)
		if err != nil {
			return err
		}
		if oid == "" {
			return &StateError{Op: "resolve " + path, Err: ErrNoMergeInProgress}
		}
		if err := c.checkoutSide(oid, path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown resolution %q", resolution)
	}

	if err := c.repo.StagePath(path); err != nil {
		return &IOError{Op: "stage", Path: path, Err: err}
	}

	log.From(ctx).Info("conflict resolved", zap.String("path", path), zap.String("resolution", string(resolution)))
	return nil
}

func (c *GitClient) checkoutSide(oid, path string) error {
	files, err := c.repo.CommitFiles(oid)
	if err != nil {
		return &IOError{Op: "read commit", Path: path, Err: err}
	}

	entry, ok := files[path]
	if !ok {
		if err := c.repo.RemoveWorktreeFile(path); err != nil {
			return &IOError{Op: "remove", Path: path, Err: err}
		}
		return nil
	}

	content, err := c.repo.GetBlob(entry.Hash)
	if err != nil {
		return &IOError{Op: "read blob", Path: path, Err: err}
	}
	if err := c.repo.WriteWorktreeFile(path, content, entry.Mode); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// sideOid finds the commit for one side of the merge. Without a session, ours
// falls back to HEAD and theirs to a legacy MERGE_HEAD file.
func (c *GitClient) sideOid(ctx context.Context, side Resolution) (string, error) {
	session, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if session != nil {
		if side == ResolutionOurs {
			return session.OursOid, nil
		}
		return session.TheirsOid, nil
	}

	l := log.From(ctx)
	if side == ResolutionOurs {
		l.Warn("no merge session; using HEAD for our side")
		return c.repo.HeadHash()
	}

	oid, err := c.store.LegacyMergeHead()
	if err != nil {
		return "", err
	}
	if oid != "" {
		l.Warn("no merge session; using MERGE_HEAD for their side")
	}
	return oid, nil
}

// GetConflictContent returns both sides of a conflicted path and its current
// working content. A side that deleted the path reads as empty. When a side
// cannot be read and the working file still has markers, that side is
// recovered from the markers instead.
func (c *GitClient) GetConflictContent(ctx context.Context, path string) (*ConflictContent, error) {
	merged, err := c.repo.ReadWorktreeFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	ours, oursErr := c.readSide(ctx, ResolutionOurs, path)
	theirs, theirsErr := c.readSide(ctx, ResolutionTheirs, path)

	if (oursErr != nil || theirsErr != nil) && merging.HasConflictMarkers(string(merged)) {
		extractedOurs, extractedTheirs := merging.ExtractFromConflictMarkers(string(merged))
		if oursErr != nil {
			ours = extractedOurs
		}
		if theirsErr != nil {
			theirs = extractedTheirs
		}
	} else if oursErr != nil || theirsErr != nil {
		log.From(ctx).Warn("could not read both sides of conflict", zap.String("path", path), zap.Error(errors.Join(oursErr, theirsErr)))
	}

	return &ConflictContent{
		OursContent:   ours,
		TheirsContent: theirs,
		MergedContent: string(merged),
	}, nil
}

func (c *GitClient) readSide(ctx context.Context, side Resolution, path string) (string, error) {
	oid, err := c.sideOid(ctx, side)
	if err != nil {
		return "", err
	}
	if oid == "" {
		return "", fmt.Errorf("no commit recorded for %s", side)
	}

	content, err := c.repo.ReadFileAtCommit(oid, path)
	if errors.Is(err, git.ErrPathNotInCommit) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return string(content), nil
}
