package gitsync

import (
	"context"
	"runtime"

	"github.com/samber/lo"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/merging"
	"golang.org/x/sync/errgroup"
)

// HasConflictMarkers reports whether the working file at path contains a
// complete set of conflict markers. Unreadable files report false.
func (c *GitClient) HasConflictMarkers(path string) bool {
	content, err := c.repo.ReadWorktreeFile(path)
	if err != nil {
		return false
	}
	return merging.HasConflictMarkers(string(content))
}

// GetConflictFiles lists conflicted paths from the merge session first, then
// any tracked file still carrying markers, then paths whose index entry
// diverges from both HEAD and the working tree. Each path appears once.
func (c *GitClient) GetConflictFiles(ctx context.Context) ([]ConflictFile, error) {
	seen := map[string]bool{}
	files := []ConflictFile{}

	add := func(f ConflictFile) {
		if seen[f.Path] {
			return
		}
		seen[f.Path] = true
		files = append(files, f)
	}

	session, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		unmerged, err := c.repo.UnmergedPaths()
		if err != nil {
			return nil, &IOError{Op: "read index", Err: err}
		}
		stillUnmerged := lo.SliceToMap(unmerged, func(p string) (string, bool) { return p, true })

		for _, p := range session.ConflictFiles {
			resolved := !c.HasConflictMarkers(p)
			if !session.HasMarkers(p) {
				resolved = !stillUnmerged[p]
			}
			add(ConflictFile{Path: p, Status: session.Kind(p), Resolved: resolved})
		}
	}

	marked, err := c.trackedFilesWithMarkers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range marked {
		add(ConflictFile{Path: p, Status: ConflictBothModified})
	}

	rows, err := c.repo.StatusMatrix()
	if err != nil {
		return nil, &IOError{Op: "status", Err: err}
	}
	for _, row := range rows {
		if row.Stage != git.StageDiverged {
			continue
		}
		add(ConflictFile{Path: row.Path, Status: ConflictBothModified, Resolved: !c.HasConflictMarkers(row.Path)})
	}

	return files, nil
}

func (c *GitClient) unresolvedConflicts(ctx context.Context) ([]string, error) {
	files, err := c.GetConflictFiles(ctx)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(files, func(f ConflictFile, _ int) (string, bool) {
		return f.Path, !f.Resolved
	}), nil
}

// trackedFilesWithMarkers scans every tracked file in parallel and returns the
// ones containing conflict markers, sorted by path.
func (c *GitClient) trackedFilesWithMarkers(ctx context.Context) ([]string, error) {
	paths, err := c.repo.IndexPaths()
	if err != nil {
		return nil, &IOError{Op: "read index", Err: err}
	}

	hits := make([]bool, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hits[i] = c.HasConflictMarkers(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Filter(paths, func(_ string, i int) bool { return hits[i] }), nil
}
