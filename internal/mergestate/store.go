// Package mergestate persists the merge session: the explicit record that a
// conflicted merge is outstanding, kept under the repository's metadata directory.
package mergestate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/merging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	Dir             = "gitsync"
	sessionFile     = "merge-session.yaml"
	legacyMergeHead = "MERGE_HEAD"
)

// Session is the persisted record of an outstanding conflicted merge. The oids
// are captured when the merge starts and never recomputed.
type Session struct {
	InProgress    bool                            `yaml:"in_progress"`
	OursRef       string                          `yaml:"ours_ref"`
	TheirsRef     string                          `yaml:"theirs_ref"`
	OursOid       string                          `yaml:"ours_oid"`
	TheirsOid     string                          `yaml:"theirs_oid"`
	ConflictFiles []string                        `yaml:"conflict_files"`
	ConflictKinds map[string]merging.ConflictKind `yaml:"conflict_kinds,omitempty"`
	// MarkerFree lists conflicted paths that never received conflict markers.
	MarkerFree []string  `yaml:"marker_free,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	// Completing is set once the merge commit exists but the branch may not have moved yet.
	Completing  bool   `yaml:"completing,omitempty"`
	MergeCommit string `yaml:"merge_commit,omitempty"`
}

// Kind returns the recorded conflict kind for path, defaulting to both_modified.
func (s *Session) Kind(p string) merging.ConflictKind {
	if k, ok := s.ConflictKinds[p]; ok {
		return k
	}
	return merging.ConflictBothModified
}

// HasMarkers reports whether the merge wrote conflict markers into path.
func (s *Session) HasMarkers(p string) bool {
	for _, mf := range s.MarkerFree {
		if mf == p {
			return false
		}
	}
	return true
}

// Store reads and writes the session file. It is the only writer of that file.
type Store struct {
	fs billy.Filesystem
}

// New creates a store rooted at the repository metadata filesystem (the .git directory).
func New(metadata billy.Filesystem) *Store {
	return &Store{fs: metadata}
}

func (s *Store) sessionPath() string {
	return path.Join(Dir, sessionFile)
}

// LockPath is the on-disk path used to serialize processes working on this repository.
func (s *Store) LockPath() string {
	return s.fs.Join(s.fs.Root(), Dir, "lock")
}

// Save atomically replaces any stored session with session.
func (s *Store) Save(ctx context.Context, session *Session) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode merge session: %w", err)
	}

	if err := s.fs.MkdirAll(Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", Dir, err)
	}

	tmp, err := util.TempFile(s.fs, Dir, "merge-session-")
	if err != nil {
		return fmt.Errorf("failed to create temporary session file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write merge session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write merge session: %w", err)
	}

	if err := s.fs.Rename(tmp.Name(), s.sessionPath()); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to store merge session: %w", err)
	}

	log.From(ctx).Info("merge session saved", zap.String("ours", session.OursRef), zap.String("theirs", session.TheirsRef))
	return nil
}

// Load returns the stored session, or nil when there is none. A file that
// cannot be decoded is reported as a warning and treated as no session.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	data, err := util.ReadFile(s.fs, s.sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read merge session: %w", err)
	}

	var session Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		log.From(ctx).Warn("ignoring unreadable merge session", zap.Error(err))
		return nil, nil
	}
	if session.OursOid == "" || session.TheirsOid == "" {
		log.From(ctx).Warnf("ignoring incomplete merge session in %s", s.sessionPath())
		return nil, nil
	}

	return &session, nil
}

// Clear deletes the stored session. Clearing when there is none is not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := s.fs.Remove(s.sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to clear merge session: %w", err)
	}

	log.From(ctx).Info("merge session cleared")
	return nil
}

// LegacyMergeHead returns the commit recorded in MERGE_HEAD, or "" if there is none.
func (s *Store) LegacyMergeHead() (string, error) {
	data, err := util.ReadFile(s.fs, legacyMergeHead)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", legacyMergeHead, err)
	}

	lines := strings.Fields(string(data))
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// RemoveLegacyMergeHead deletes MERGE_HEAD if present.
func (s *Store) RemoveLegacyMergeHead() error {
	if err := s.fs.Remove(legacyMergeHead); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", legacyMergeHead, err)
	}
	return nil
}
