package git

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

var errStopIter = errors.New("stop iteration")

// CommitRecord is the subset of a commit the sync layer reports.
type CommitRecord struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

// ChangeAction classifies a path that differs between two trees.
type ChangeAction string

const (
	ChangeAdded    ChangeAction = "added"
	ChangeDeleted  ChangeAction = "deleted"
	ChangeModified ChangeAction = "modified"
)

type TreeChange struct {
	Action ChangeAction
	Path   string
}

// Log returns up to limit commits reachable from the given commit, newest
// first. A limit <= 0 returns the full history.
func (r *Repository) Log(from string, limit int) ([]CommitRecord, error) {
	return r.CommitsBetween(from, "", limit)
}

// CommitsBetween returns the commits reachable from include but not from
// exclude, newest first.
func (r *Repository) CommitsBetween(include, exclude string, limit int) ([]CommitRecord, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}
	if include == "" {
		return nil, nil
	}

	excluded, err := r.ReachableCommits(exclude)
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Log(&gitc.LogOptions{
		From:  plumbing.NewHash(include),
		Order: gitc.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", abbrev(include), err)
	}
	defer iter.Close()

	var commits []CommitRecord
	err = iter.ForEach(func(c *object.Commit) error {
		if _, ok := excluded[c.Hash.String()]; ok {
			return nil
		}
		commits = append(commits, CommitRecord{
			Hash:    c.Hash.String(),
			Message: c.Message,
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
		if limit > 0 && len(commits) >= limit {
			return errStopIter
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIter) {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].When.After(commits[j].When)
	})

	return commits, nil
}

// ReachableCommits returns the set of commit hashes reachable from hash. An
// empty hash yields an empty set.
func (r *Repository) ReachableCommits(hash string) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	if hash == "" {
		return set, nil
	}

	iter, err := r.repo.Log(&gitc.LogOptions{From: plumbing.NewHash(hash)})
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", abbrev(hash), err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		set[c.Hash.String()] = struct{}{}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}

	return set, nil
}

// DiffCommits lists the paths that differ between the trees of two commits,
// classified from the point of view of moving from -> to.
func (r *Repository) DiffCommits(from, to string) ([]TreeChange, error) {
	if r.IsNil() {
		return nil, ErrNotInitialized
	}

	fromTree, err := r.commitTree(from)
	if err != nil {
		return nil, err
	}
	toTree, err := r.commitTree(to)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to get diff between commits: %w", err)
	}

	result := make([]TreeChange, 0, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to get change action: %w", err)
		}

		switch action {
		case merkletrie.Insert:
			result = append(result, TreeChange{Action: ChangeAdded, Path: change.To.Name})
		case merkletrie.Delete:
			result = append(result, TreeChange{Action: ChangeDeleted, Path: change.From.Name})
		case merkletrie.Modify:
			result = append(result, TreeChange{Action: ChangeModified, Path: change.To.Name})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (r *Repository) commitTree(hash string) (*object.Tree, error) {
	if hash == "" {
		return &object.Tree{}, nil
	}

	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object %s: %w", abbrev(hash), err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get commit tree: %w", err)
	}

	return tree, nil
}

// TreeHash returns the root tree of a commit, or "" for an unborn branch.
func (r *Repository) TreeHash(commitHash string) (string, error) {
	if r.IsNil() {
		return "", ErrNotInitialized
	}
	if commitHash == "" {
		return "", nil
	}

	tree, err := r.commitTree(commitHash)
	if err != nil {
		return "", err
	}
	return tree.Hash.String(), nil
}
