package git

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing/format/index"
)

type HeadState int

const (
	HeadAbsent HeadState = iota
	HeadPresent
)

type WorktreeState int

const (
	WorktreeAbsent WorktreeState = iota
	// WorktreeUnmodified means the working file is identical to HEAD.
	WorktreeUnmodified
	// WorktreeModified means the working file exists and differs from HEAD (or HEAD lacks it).
	WorktreeModified
)

type StageState int

const (
	StageAbsent StageState = iota
	StageMatchesHead
	StageMatchesWorktree
	// StageDiverged means the index differs from both HEAD and the working tree.
	// Unmerged paths always report this state.
	StageDiverged
)

// StatusRow compares one path across HEAD, the working tree and the index.
type StatusRow struct {
	Path     string
	Head     HeadState
	Worktree WorktreeState
	Stage    StageState
}

// StatusMatrix returns one row per path known to HEAD, the index or the working
// tree, sorted by path. Untracked files matched by .gitignore are left out.
// Working files are always hashed, so the result does not depend on stat caches.
func (r *Repository) StatusMatrix() ([]StatusRow, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}

	headHash, err := r.HeadHash()
	if err != nil {
		return nil, err
	}
	head, err := r.CommitFiles(headHash)
	if err != nil {
		return nil, err
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	staged := map[string]*index.Entry{}
	unmerged := map[string]bool{}
	for _, e := range idx.Entries {
		if e.Stage == stageMerged {
			staged[e.Name] = e
		} else {
			unmerged[e.Name] = true
		}
	}

	onDisk, err := r.worktreePaths()
	if err != nil {
		return nil, err
	}
	matcher, err := r.ignoreMatcher()
	if err != nil {
		return nil, err
	}

	paths := map[string]struct{}{}
	for p := range head {
		paths[p] = struct{}{}
	}
	for p := range staged {
		paths[p] = struct{}{}
	}
	for p := range unmerged {
		paths[p] = struct{}{}
	}
	for _, p := range onDisk {
		if _, known := paths[p]; !known && isIgnored(matcher, p) {
			continue
		}
		paths[p] = struct{}{}
	}

	fs, err := r.worktreeFS()
	if err != nil {
		return nil, err
	}

	rows := make([]StatusRow, 0, len(paths))
	for p := range paths {
		row := StatusRow{Path: p}

		headEntry, inHead := head[p]
		if inHead {
			row.Head = HeadPresent
		}

		wf, err := r.statWorktreeFile(fs, p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		switch {
		case wf == nil:
			row.Worktree = WorktreeAbsent
		case inHead && wf.hash.String() == headEntry.Hash:
			row.Worktree = WorktreeUnmodified
		default:
			row.Worktree = WorktreeModified
		}

		entry, inIndex := staged[p]
		switch {
		case unmerged[p]:
			row.Stage = StageDiverged
		case !inIndex:
			row.Stage = StageAbsent
		case inHead && entry.Hash.String() == headEntry.Hash:
			row.Stage = StageMatchesHead
		case wf != nil && entry.Hash == wf.hash:
			row.Stage = StageMatchesWorktree
		default:
			row.Stage = StageDiverged
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows, nil
}
