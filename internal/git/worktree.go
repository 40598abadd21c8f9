package git

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ReadWorktreeFile returns the on-disk bytes of a working tree path. Symlinks
// yield their target, matching what git stores as the blob.
func (r *Repository) ReadWorktreeFile(p string) ([]byte, error) {
	fs, err := r.worktreeFS()
	if err != nil {
		return nil, err
	}

	fi, err := fs.Lstat(p)
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Readlink(p)
		if err != nil {
			return nil, err
		}
		return []byte(target), nil
	}

	return util.ReadFile(fs, p)
}

// WorktreeFileExists reports whether a regular file or symlink exists at p.
func (r *Repository) WorktreeFileExists(p string) bool {
	fs, err := r.worktreeFS()
	if err != nil {
		return false
	}
	fi, err := fs.Lstat(p)
	return err == nil && !fi.IsDir()
}

// WriteWorktreeFile replaces the file at p with content, creating parent directories.
func (r *Repository) WriteWorktreeFile(p string, content []byte, mode filemode.FileMode) error {
	fs, err := r.worktreeFS()
	if err != nil {
		return err
	}

	if dir := path.Dir(p); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", p, err)
	}

	if mode == filemode.Symlink {
		return fs.Symlink(string(content), p)
	}

	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}

	return util.WriteFile(fs, p, content, perm)
}

// RemoveWorktreeFile deletes p and any parent directories left empty. Missing files are ignored.
func (r *Repository) RemoveWorktreeFile(p string) error {
	fs, err := r.worktreeFS()
	if err != nil {
		return err
	}

	if err := fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}

	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		entries, err := fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := fs.Remove(dir); err != nil {
			break
		}
	}

	return nil
}

type worktreeFile struct {
	hash plumbing.Hash
	mode filemode.FileMode
	size int64
}

func (r *Repository) statWorktreeFile(fs billy.Filesystem, p string) (*worktreeFile, error) {
	fi, err := fs.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, nil
	}

	content, err := r.ReadWorktreeFile(p)
	if err != nil {
		return nil, err
	}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		mode = filemode.Regular
	}

	return &worktreeFile{
		hash: plumbing.ComputeHash(plumbing.BlobObject, content),
		mode: mode,
		size: int64(len(content)),
	}, nil
}

// worktreePaths lists every file below the worktree root, skipping the .git directory.
func (r *Repository) worktreePaths() ([]string, error) {
	fs, err := r.worktreeFS()
	if err != nil {
		return nil, err
	}

	var paths []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := e.Name()
			if dir != "" {
				name = dir + "/" + e.Name()
			}
			if e.IsDir() {
				if e.Name() == ".git" {
					continue
				}
				if err := walk(name); err != nil {
					return err
				}
				continue
			}
			paths = append(paths, name)
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, fmt.Errorf("failed to walk worktree: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ignoreMatcher loads the .gitignore patterns of the worktree.
func (r *Repository) ignoreMatcher() (gitignore.Matcher, error) {
	fs, err := r.worktreeFS()
	if err != nil {
		return nil, err
	}

	patterns, err := gitignore.ReadPatterns(fs, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore patterns: %w", err)
	}

	return gitignore.NewMatcher(patterns), nil
}

func isIgnored(m gitignore.Matcher, p string) bool {
	return m != nil && m.Match(strings.Split(p, "/"), false)
}
