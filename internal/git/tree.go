package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrUnmergedIndex is returned when a tree is requested from an index that still has conflict stages.
var ErrUnmergedIndex = errors.New("index contains unmerged entries")

// TreeEntry is a file recorded in a tree. Name is the full slash-separated path
// when produced by CommitFiles and a single path element inside WriteTree.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash string
}

// WriteTree creates a single (flat) tree object from the provided entries and returns its hash.
// Entries are written in git's canonical order.
func (r *Repository) WriteTree(entries []TreeEntry) (string, error) {
	treeEntries := make([]object.TreeEntry, 0, len(entries))
	for _, e := range entries {
		treeEntries = append(treeEntries, object.TreeEntry{
			Name: e.Name,
			Mode: e.Mode,
			Hash: plumbing.NewHash(e.Hash),
		})
	}

	sort.Slice(treeEntries, func(i, j int) bool {
		return treeSortKey(treeEntries[i]) < treeSortKey(treeEntries[j])
	})

	tree := object.Tree{
		Entries: treeEntries,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store tree: %w", err)
	}

	return hash.String(), nil
}

// Directories sort as if their name had a trailing slash.
func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// WriteTreeFromFiles builds the nested tree objects for a flat path -> entry map
// and returns the root tree hash.
func (r *Repository) WriteTreeFromFiles(files map[string]TreeEntry) (string, error) {
	if r.IsNil() {
		return "", ErrNotInitialized
	}

	root := newDirNode()
	for p, e := range files {
		root.insert(p, e)
	}
	return r.writeDirNode(root)
}

// WriteIndexTree writes the tree described by the current index.
func (r *Repository) WriteIndexTree() (string, error) {
	if r.IsNil() {
		return "", ErrNotInitialized
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return "", fmt.Errorf("failed to read index: %w", err)
	}

	files := make(map[string]TreeEntry, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Stage != stageMerged {
			return "", fmt.Errorf("%s: %w", e.Name, ErrUnmergedIndex)
		}
		files[e.Name] = TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.Hash.String()}
	}

	return r.WriteTreeFromFiles(files)
}

type dirNode struct {
	children map[string]*dirNode
	file     *TreeEntry
}

func newDirNode() *dirNode {
	return &dirNode{children: make(map[string]*dirNode)}
}

func (d *dirNode) insert(pathStr string, e TreeEntry) {
	parts := strings.Split(pathStr, "/")
	current := d
	for i, part := range parts {
		if i == len(parts)-1 {
			entry := e
			current.children[part] = &dirNode{file: &entry}
			continue
		}
		if _, exists := current.children[part]; !exists {
			current.children[part] = newDirNode()
		}
		current = current.children[part]
	}
}

func (r *Repository) writeDirNode(d *dirNode) (string, error) {
	entries := make([]TreeEntry, 0, len(d.children))

	for name, node := range d.children {
		if node.file != nil {
			mode := node.file.Mode
			if mode == filemode.Empty {
				mode = filemode.Regular
			}
			entries = append(entries, TreeEntry{Name: name, Mode: mode, Hash: node.file.Hash})
			continue
		}

		hash, err := r.writeDirNode(node)
		if err != nil {
			return "", err
		}
		entries = append(entries, TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}

	return r.WriteTree(entries)
}
