package git

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	pkgerrors "github.com/pkg/errors"
)

// ErrPathNotInCommit is returned when a path has no blob in the requested commit.
var ErrPathNotInCommit = errors.New("path not present in commit")

// Signature identifies the author and committer of commits created by the engine.
type Signature struct {
	Name  string
	Email string
}

// WriteBlob writes content to the git object database and returns the SHA-1 hash.
func (r *Repository) WriteBlob(content []byte) (string, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	writer, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("failed to create object writer: %w", err)
	}

	if _, err := writer.Write(content); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write blob content: %w", err)
	}
	writer.Close()

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return hash.String(), nil
}

// GetBlob retrieves the content of a blob by its SHA-1 hash.
func (r *Repository) GetBlob(hash string) ([]byte, error) {
	// Strip "sha1:" prefix if present (common in some systems)
	hash = strings.TrimPrefix(hash, "sha1:")

	h := plumbing.NewHash(hash)
	blob, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, fmt.Errorf("failed to find blob %s: %w", hash, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob reader: %w", err)
	}
	defer reader.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadFileAtCommit returns the exact bytes of path as recorded in the given commit.
func (r *Repository) ReadFileAtCommit(commitHash, path string) ([]byte, error) {
	files, err := r.CommitFiles(commitHash)
	if err != nil {
		return nil, err
	}

	entry, ok := files[path]
	if !ok {
		return nil, fmt.Errorf("%s at %s: %w", path, abbrev(commitHash), ErrPathNotInCommit)
	}

	return r.GetBlob(entry.Hash)
}

// CommitFiles flattens the tree of a commit into path -> entry. An empty hash
// yields an empty tree.
func (r *Repository) CommitFiles(commitHash string) (map[string]TreeEntry, error) {
	files := map[string]TreeEntry{}
	if commitHash == "" {
		return files, nil
	}

	commit, err := r.repo.CommitObject(plumbing.NewHash(commitHash))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read commit %s", abbrev(commitHash))
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read tree of %s", abbrev(commitHash))
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		files[f.Name] = TreeEntry{Name: f.Name, Mode: f.Mode, Hash: f.Hash.String()}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to walk tree of %s", abbrev(commitHash))
	}

	return files, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (r *Repository) IsAncestor(ancestor, descendant string) (bool, error) {
	a, err := r.repo.CommitObject(plumbing.NewHash(ancestor))
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to read commit %s", abbrev(ancestor))
	}
	d, err := r.repo.CommitObject(plumbing.NewHash(descendant))
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to read commit %s", abbrev(descendant))
	}
	return a.IsAncestor(d)
}

// MergeBase returns the best common ancestor of two commits, or "" for unrelated histories.
func (r *Repository) MergeBase(a, b string) (string, error) {
	ca, err := r.repo.CommitObject(plumbing.NewHash(a))
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read commit %s", abbrev(a))
	}
	cb, err := r.repo.CommitObject(plumbing.NewHash(b))
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read commit %s", abbrev(b))
	}

	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to compute merge base")
	}
	if len(bases) == 0 {
		return "", nil
	}

	return bases[0].Hash.String(), nil
}

// CommitTree creates a commit object pointing to a tree and its parents.
func (r *Repository) CommitTree(treeHash string, parents []string, message string, author Signature) (string, error) {
	tHash := plumbing.NewHash(treeHash)

	parentHashes := make([]plumbing.Hash, 0, len(parents))
	for _, p := range parents {
		if p != "" {
			parentHashes = append(parentHashes, plumbing.NewHash(p))
		}
	}

	now := time.Now()
	sig := object.Signature{
		Name:  author.Name,
		Email: author.Email,
		When:  now,
	}
	commit := object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tHash,
		ParentHashes: parentHashes,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode commit: %w", err)
	}

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store commit: %w", err)
	}

	return hash.String(), nil
}

// UpdateRef updates a git reference to point to a specific commit hash.
// If oldHash is provided, it performs a compare-and-swap (optimistic locking).
// Pass "" as oldHash to force update.
func (r *Repository) UpdateRef(refName, newHash, oldHash string) error {
	ref := plumbing.ReferenceName(refName)
	h := plumbing.NewHash(newHash)

	newRef := plumbing.NewHashReference(ref, h)

	if oldHash == "" {
		return r.repo.Storer.SetReference(newRef)
	}

	return r.repo.Storer.CheckAndSetReference(newRef, plumbing.NewHashReference(ref, plumbing.NewHash(oldHash)))
}

// SetConflictState sets up git's index to show a file as conflicted.
// This writes the base (stage 1), ours (stage 2), and theirs (stage 3) versions
// as index entries. A nil side is left out, which is how modify/delete and
// add/add conflicts are recorded.
func (r *Repository) SetConflictState(path string, base, ours, theirs []byte, mode filemode.FileMode) error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	stages := []struct {
		stage   index.Stage
		content []byte
	}{
		{index.AncestorMode, base},
		{index.OurMode, ours},
		{index.TheirMode, theirs},
	}

	return r.updateIndex(func(idx *index.Index) error {
		removeEntries(idx, path)

		now := time.Now()
		for _, s := range stages {
			if s.content == nil {
				continue
			}
			hash, err := r.WriteBlob(s.content)
			if err != nil {
				return fmt.Errorf("failed to write stage %d blob: %w", s.stage, err)
			}
			idx.Entries = append(idx.Entries, &index.Entry{
				Name:       path,
				Hash:       plumbing.NewHash(hash),
				Mode:       mode,
				Stage:      s.stage,
				CreatedAt:  now,
				ModifiedAt: now,
				Size:       uint32(len(s.content)),
			})
		}
		return nil
	})
}

func abbrev(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
