package merging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/speakeasy-api/gitsync/internal/git"
)

// ErrLocalChanges is returned before anything is written when the working tree
// or index has uncommitted changes on a path the merge needs to touch.
var ErrLocalChanges = errors.New("local changes would be overwritten by merge")

// maxParallelMerges bounds the number of concurrent diff3 runs.
const maxParallelMerges = 10

// Options configures a single Engine.Merge call.
type Options struct {
	// Branch is the local branch being merged into. It must be checked out.
	Branch string
	// OursRef and TheirsRef label conflict markers and the default commit message.
	OursRef   string
	TheirsRef string
	Author    git.Signature
	// Message overrides the default "Merge <theirs> into <ours>" commit message.
	Message string
}

func (o Options) message() string {
	if o.Message != "" {
		return o.Message
	}
	return fmt.Sprintf("Merge %s into %s", o.TheirsRef, o.OursRef)
}

// Engine merges an incoming commit into the checked out branch. Unlike an
// aborting merge, a conflicted merge leaves everything that merged cleanly in
// place and records conflicts as markers in the working tree plus stage 1/2/3
// index entries.
type Engine struct {
	history HistoryProvider
	git     *git.Repository
}

func NewEngine(repo *git.Repository) *Engine {
	return &Engine{
		history: NewGitHistoryProvider(repo),
		git:     repo,
	}
}

// Merge brings theirs into ours. ours may be empty for an unborn branch. On
// conflicts a *ConflictError is returned and no commit is created.
func (e *Engine) Merge(ctx context.Context, ours, theirs string, opts Options) (*Result, error) {
	if ours == theirs {
		return &Result{Outcome: OutcomeUpToDate, Commit: ours}, nil
	}

	if ours != "" {
		behind, err := e.git.IsAncestor(theirs, ours)
		if err != nil {
			return nil, err
		}
		if behind {
			return &Result{Outcome: OutcomeUpToDate, Commit: ours}, nil
		}
	}

	fastForward := ours == ""
	if !fastForward {
		var err error
		fastForward, err = e.git.IsAncestor(ours, theirs)
		if err != nil {
			return nil, err
		}
	}

	if fastForward {
		return e.fastForward(ctx, ours, theirs, opts)
	}

	return e.threeWay(ctx, ours, theirs, opts)
}

func (e *Engine) fastForward(ctx context.Context, ours, theirs string, opts Options) (*Result, error) {
	oursFiles, err := e.git.CommitFiles(ours)
	if err != nil {
		return nil, err
	}
	theirsFiles, err := e.git.CommitFiles(theirs)
	if err != nil {
		return nil, err
	}

	var plans []pathPlan
	for _, p := range unionPaths(oursFiles, theirsFiles) {
		o, inOurs := oursFiles[p]
		t, inTheirs := theirsFiles[p]
		if sameEntry(o, inOurs, t, inTheirs) {
			continue
		}
		plan := pathPlan{path: p, remove: !inTheirs}
		if inTheirs {
			entry := t
			plan.entry = &entry
		}
		plans = append(plans, plan)
	}

	if err := e.checkLocalChanges(plans, oursFiles); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.apply(plans); err != nil {
		return nil, err
	}

	if err := e.git.UpdateRef(plumbing.NewBranchReferenceName(opts.Branch).String(), theirs, ours); err != nil {
		return nil, fmt.Errorf("failed to move %s to %s: %w", opts.Branch, theirs, err)
	}

	return &Result{Outcome: OutcomeFastForward, Commit: theirs}, nil
}

// pathPlan is the decision for a single path touched by a merge.
type pathPlan struct {
	path string
	// entry is the merged result to write and stage; nil with remove set deletes the path.
	entry  *git.TreeEntry
	remove bool
	// content overrides the blob of entry when writing the working file (markers).
	content  []byte
	conflict *FileConflict
	stages   [3][]byte
}

func (e *Engine) threeWay(ctx context.Context, ours, theirs string, opts Options) (*Result, error) {
	base, err := e.git.MergeBase(ours, theirs)
	if err != nil {
		return nil, err
	}

	baseFiles, err := e.git.CommitFiles(base)
	if err != nil {
		return nil, err
	}
	oursFiles, err := e.git.CommitFiles(ours)
	if err != nil {
		return nil, err
	}
	theirsFiles, err := e.git.CommitFiles(theirs)
	if err != nil {
		return nil, err
	}

	merger := NewTextMerger(opts.OursRef, opts.TheirsRef)

	var plans []*pathPlan
	var contentMerges []*contentMerge
	for _, p := range unionPaths(baseFiles, oursFiles, theirsFiles) {
		b, inBase := baseFiles[p]
		o, inOurs := oursFiles[p]
		t, inTheirs := theirsFiles[p]

		switch {
		case sameEntry(o, inOurs, t, inTheirs), sameEntry(b, inBase, t, inTheirs):
			// ours already has the result
			continue
		case sameEntry(b, inBase, o, inOurs):
			plan := &pathPlan{path: p, remove: !inTheirs}
			if inTheirs {
				entry := t
				plan.entry = &entry
			}
			plans = append(plans, plan)
		case inOurs && inTheirs:
			cm, err := e.loadContentMerge(p, b, inBase, o, t)
			if err != nil {
				return nil, err
			}
			contentMerges = append(contentMerges, cm)
			plans = append(plans, cm.plan)
		case !inOurs:
			theirsContent, err := e.history.Blob(t.Hash)
			if err != nil {
				return nil, err
			}
			baseContent, err := e.history.Blob(b.Hash)
			if err != nil {
				return nil, err
			}
			entry := t
			plans = append(plans, &pathPlan{
				path:     p,
				entry:    &entry,
				conflict: &FileConflict{Path: p, Kind: ConflictDeletedByUs},
				stages:   [3][]byte{baseContent, nil, theirsContent},
			})
		default:
			oursContent, err := e.history.Blob(o.Hash)
			if err != nil {
				return nil, err
			}
			baseContent, err := e.history.Blob(b.Hash)
			if err != nil {
				return nil, err
			}
			entry := o
			plans = append(plans, &pathPlan{
				path:     p,
				entry:    &entry,
				conflict: &FileConflict{Path: p, Kind: ConflictDeletedByThem},
				stages:   [3][]byte{baseContent, oursContent, nil},
			})
		}
	}

	if err := runContentMerges(merger, contentMerges); err != nil {
		return nil, err
	}

	flat := make([]pathPlan, 0, len(plans))
	for _, p := range plans {
		flat = append(flat, *p)
	}

	if err := e.checkLocalChanges(flat, oursFiles); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.apply(flat); err != nil {
		return nil, err
	}

	var conflicts []FileConflict
	for _, p := range flat {
		if p.conflict != nil {
			conflicts = append(conflicts, *p.conflict)
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	merged := make(map[string]git.TreeEntry, len(oursFiles))
	for p, entry := range oursFiles {
		merged[p] = entry
	}
	for _, p := range flat {
		if p.remove {
			delete(merged, p.path)
			continue
		}
		merged[p.path] = *p.entry
	}

	tree, err := e.git.WriteTreeFromFiles(merged)
	if err != nil {
		return nil, err
	}

	commit, err := e.git.CommitTree(tree, []string{ours, theirs}, opts.message(), opts.Author)
	if err != nil {
		return nil, err
	}

	if err := e.git.UpdateRef(plumbing.NewBranchReferenceName(opts.Branch).String(), commit, ours); err != nil {
		return nil, fmt.Errorf("failed to move %s to %s: %w", opts.Branch, commit, err)
	}

	return &Result{Outcome: OutcomeMerged, Commit: commit}, nil
}

type contentMerge struct {
	plan               *pathPlan
	hasBase            bool
	base, ours, theirs []byte
}

func (e *Engine) loadContentMerge(p string, b git.TreeEntry, inBase bool, o, t git.TreeEntry) (*contentMerge, error) {
	cm := &contentMerge{hasBase: inBase}

	var err error
	if inBase {
		if cm.base, err = e.history.Blob(b.Hash); err != nil {
			return nil, err
		}
	}
	if cm.ours, err = e.history.Blob(o.Hash); err != nil {
		return nil, err
	}
	if cm.theirs, err = e.history.Blob(t.Hash); err != nil {
		return nil, err
	}

	cm.plan = &pathPlan{
		path:  p,
		entry: &git.TreeEntry{Name: p, Mode: mergeMode(b.Mode, inBase, o.Mode, t.Mode)},
	}
	return cm, nil
}

// runContentMerges runs diff3 for every path both sides changed.
func runContentMerges(merger Merger, merges []*contentMerge) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	// Limit concurrency to avoid CPU spikes on large merges
	sem := make(chan struct{}, maxParallelMerges)

	for _, m := range merges {
		wg.Add(1)
		go func(cm *contentMerge) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var base []byte
			if cm.hasBase {
				base = cm.base
			}

			res, err := merger.Merge(base, cm.ours, cm.theirs)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("merge failed for %s: %w", cm.plan.path, err)
				}
				mu.Unlock()
				return
			}

			cm.plan.content = res.Content
			if !res.HasConflicts {
				return
			}

			kind := ConflictBothModified
			if !cm.hasBase {
				kind = ConflictBothAdded
			}
			cm.plan.conflict = &FileConflict{
				Path:    cm.plan.path,
				Kind:    kind,
				Markers: res.Status == MergeStatusConflict,
			}
			cm.plan.stages = [3][]byte{base, cm.ours, cm.theirs}
		}(m)
	}
	wg.Wait()

	return firstErr
}

// checkLocalChanges refuses to touch a path whose working file or index entry
// differs from what ours recorded.
func (e *Engine) checkLocalChanges(plans []pathPlan, oursFiles map[string]git.TreeEntry) error {
	if len(plans) == 0 {
		return nil
	}

	rows, err := e.git.StatusMatrix()
	if err != nil {
		return err
	}
	status := make(map[string]git.StatusRow, len(rows))
	for _, row := range rows {
		status[row.Path] = row
	}

	var dirty []string
	for _, p := range plans {
		row, known := status[p.path]
		if _, inOurs := oursFiles[p.path]; inOurs {
			if known && (row.Worktree != git.WorktreeUnmodified || row.Stage != git.StageMatchesHead) {
				dirty = append(dirty, p.path)
			}
			continue
		}
		if (known && (row.Worktree != git.WorktreeAbsent || row.Stage != git.StageAbsent)) || e.git.WorktreeFileExists(p.path) {
			dirty = append(dirty, p.path)
		}
	}

	if len(dirty) > 0 {
		sort.Strings(dirty)
		return fmt.Errorf("%w: %v", ErrLocalChanges, dirty)
	}
	return nil
}

// apply writes the planned result of every path to the working tree and index.
func (e *Engine) apply(plans []pathPlan) error {
	var updates []git.IndexUpdate

	for _, p := range plans {
		if p.remove {
			if err := e.git.RemoveWorktreeFile(p.path); err != nil {
				return err
			}
			updates = append(updates, git.IndexUpdate{Path: p.path, Remove: true})
			continue
		}

		content := p.content
		if content == nil {
			blob, err := e.history.Blob(p.entry.Hash)
			if err != nil {
				return err
			}
			content = blob
		}

		if err := e.git.WriteWorktreeFile(p.path, content, p.entry.Mode); err != nil {
			return fmt.Errorf("failed to write merged file %s: %w", p.path, err)
		}

		if p.conflict != nil {
			continue
		}

		if p.entry.Hash == "" {
			hash, err := e.git.WriteBlob(content)
			if err != nil {
				return err
			}
			p.entry.Hash = hash
		}

		updates = append(updates, git.IndexUpdate{Path: p.path, Hash: p.entry.Hash, Mode: p.entry.Mode, Size: len(content)})
	}

	if err := e.git.ApplyIndexUpdates(updates); err != nil {
		return err
	}

	for _, p := range plans {
		if p.conflict == nil {
			continue
		}
		if err := e.git.SetConflictState(p.path, p.stages[0], p.stages[1], p.stages[2], p.entry.Mode); err != nil {
			return fmt.Errorf("failed to record conflict for %s: %w", p.path, err)
		}
	}

	return nil
}

// mergeMode keeps ours unless only theirs changed the mode.
func mergeMode(base filemode.FileMode, inBase bool, ours, theirs filemode.FileMode) filemode.FileMode {
	if ours == theirs {
		return ours
	}
	if inBase && base == ours {
		return theirs
	}
	return ours
}

func sameEntry(a git.TreeEntry, inA bool, b git.TreeEntry, inB bool) bool {
	if inA != inB {
		return false
	}
	return !inA || (a.Hash == b.Hash && a.Mode == b.Mode)
}

func unionPaths(sets ...map[string]git.TreeEntry) []string {
	seen := map[string]struct{}{}
	var paths []string
	for _, set := range sets {
		for p := range set {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
