package git

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/samber/lo"
)

// stageMerged is the stage of an ordinary index entry. go-git's index.Merged
// is 1 and shares its value with AncestorMode, so it cannot be used here.
const stageMerged index.Stage = 0

// updateIndex loads the index, applies fn and writes it back in canonical order.
func (r *Repository) updateIndex(fn func(idx *index.Index) error) error {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := fn(idx); err != nil {
		return err
	}

	sort.SliceStable(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Name == idx.Entries[j].Name {
			return idx.Entries[i].Stage < idx.Entries[j].Stage
		}
		return idx.Entries[i].Name < idx.Entries[j].Name
	})

	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	return nil
}

// removeEntries drops every stage of path from idx.
func removeEntries(idx *index.Index, path string) {
	idx.Entries = lo.Reject(idx.Entries, func(e *index.Entry, _ int) bool {
		return e.Name == path
	})
}

// StagePath replaces all index entries for path (including conflict stages)
// with a single stage-0 entry for the current working tree content. A path
// missing from the working tree is removed from the index.
func (r *Repository) StagePath(path string) error {
	return r.StagePaths([]string{path})
}

// StagePaths stages several paths with a single index write.
func (r *Repository) StagePaths(paths []string) error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	fs, err := r.worktreeFS()
	if err != nil {
		return err
	}

	return r.updateIndex(func(idx *index.Index) error {
		for _, p := range paths {
			removeEntries(idx, p)

			wf, err := r.statWorktreeFile(fs, p)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", p, err)
			}
			if wf == nil {
				continue
			}

			content, err := r.ReadWorktreeFile(p)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", p, err)
			}
			if _, err := r.WriteBlob(content); err != nil {
				return err
			}

			idx.Entries = append(idx.Entries, newIndexEntry(p, wf.hash, wf.mode, wf.size))
		}
		return nil
	})
}

// AddAll stages every working tree change: tracked files that were deleted are
// removed from the index, and new or changed files that are not ignored are added.
func (r *Repository) AddAll() error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	tracked, err := r.IndexPaths()
	if err != nil {
		return err
	}

	onDisk, err := r.worktreePaths()
	if err != nil {
		return err
	}

	matcher, err := r.ignoreMatcher()
	if err != nil {
		return err
	}

	trackedSet := lo.SliceToMap(tracked, func(p string) (string, struct{}) { return p, struct{}{} })
	paths := append([]string{}, tracked...)
	for _, p := range onDisk {
		if _, ok := trackedSet[p]; ok || isIgnored(matcher, p) {
			continue
		}
		paths = append(paths, p)
	}

	return r.StagePaths(paths)
}

// IndexPaths returns the distinct paths present in the index at any stage, sorted.
func (r *Repository) IndexPaths() ([]string, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	paths := lo.Uniq(lo.Map(idx.Entries, func(e *index.Entry, _ int) string { return e.Name }))
	sort.Strings(paths)
	return paths, nil
}

// UnmergedPaths returns the paths that still carry conflict stages, sorted.
func (r *Repository) UnmergedPaths() ([]string, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	unmerged := lo.FilterMap(idx.Entries, func(e *index.Entry, _ int) (string, bool) {
		return e.Name, e.Stage != stageMerged
	})
	paths := lo.Uniq(unmerged)
	sort.Strings(paths)
	return paths, nil
}

// IsUnmerged reports whether path still has conflict stages in the index.
func (r *Repository) IsUnmerged(path string) (bool, error) {
	paths, err := r.UnmergedPaths()
	if err != nil {
		return false, err
	}
	return lo.Contains(paths, path), nil
}

// IndexUpdate is a merged (stage 0) entry to record for Path, or with Remove
// set, a path to drop from the index entirely.
type IndexUpdate struct {
	Path   string
	Hash   string
	Mode   filemode.FileMode
	Size   int
	Remove bool
}

// ApplyIndexUpdates records already written blobs in the index without reading
// the working tree.
func (r *Repository) ApplyIndexUpdates(updates []IndexUpdate) error {
	if r.IsNil() {
		return ErrNotInitialized
	}
	if len(updates) == 0 {
		return nil
	}
	return r.updateIndex(func(idx *index.Index) error {
		for _, u := range updates {
			removeEntries(idx, u.Path)
			if u.Remove {
				continue
			}
			idx.Entries = append(idx.Entries, newIndexEntry(u.Path, plumbing.NewHash(u.Hash), u.Mode, int64(u.Size)))
		}
		return nil
	})
}

func newIndexEntry(path string, hash plumbing.Hash, mode filemode.FileMode, size int64) *index.Entry {
	now := time.Now()
	return &index.Entry{
		Name:       path,
		Hash:       hash,
		Mode:       mode,
		Stage:      stageMerged,
		CreatedAt:  now,
		ModifiedAt: now,
		Size:       uint32(size),
	}
}
