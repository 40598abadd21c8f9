package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// ForceCheckout makes the working tree and index match the tree of commitHash.
// Tracked files are rewritten byte-for-byte, index paths absent from the target
// are removed from disk, and the index is rebuilt. Untracked files and refs are
// left alone.
func (r *Repository) ForceCheckout(commitHash string) error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	target, err := r.CommitFiles(commitHash)
	if err != nil {
		return err
	}

	tracked, err := r.IndexPaths()
	if err != nil {
		return err
	}

	for _, p := range tracked {
		if _, ok := target[p]; ok {
			continue
		}
		if err := r.RemoveWorktreeFile(p); err != nil {
			return err
		}
	}

	entries := make([]*index.Entry, 0, len(target))
	for p, e := range target {
		content, err := r.GetBlob(e.Hash)
		if err != nil {
			return err
		}
		if err := r.WriteWorktreeFile(p, content, e.Mode); err != nil {
			return fmt.Errorf("failed to restore %s: %w", p, err)
		}
		entries = append(entries, newIndexEntry(p, plumbing.NewHash(e.Hash), e.Mode, int64(len(content))))
	}

	return r.updateIndex(func(idx *index.Index) error {
		idx.Entries = entries
		idx.Cache = nil
		idx.ResolveUndo = nil
		return nil
	})
}
