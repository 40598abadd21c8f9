package gitsync

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/merging"
)

type ChangeStatus string

const (
	ChangeAdded     ChangeStatus = "added"
	ChangeModified  ChangeStatus = "modified"
	ChangeDeleted   ChangeStatus = "deleted"
	ChangeUntracked ChangeStatus = "untracked"
)

type FileChange struct {
	Path   string
	Status ChangeStatus
}

type StatusResult struct {
	Changes               []FileChange
	HasUncommittedChanges bool
}

// ConflictStatus is the kind of conflict recorded for a path.
type ConflictStatus = merging.ConflictKind

const (
	ConflictBothModified  = merging.ConflictBothModified
	ConflictDeletedByUs   = merging.ConflictDeletedByUs
	ConflictDeletedByThem = merging.ConflictDeletedByThem
	ConflictBothAdded     = merging.ConflictBothAdded
)

type ConflictFile struct {
	Path     string         `json:"path"`
	Status   ConflictStatus `json:"status"`
	Resolved bool           `json:"resolved"`
}

type ConflictContent struct {
	OursContent   string
	TheirsContent string
	MergedContent string
}

type PullResult struct {
	HadConflicts  bool
	ConflictFiles []string
}

type CommitInfo struct {
	Hash    string
	Message string
	Author  string
	Date    string
}

type IncomingFile struct {
	Status git.ChangeAction
	Path   string
}

type FetchStatusResult struct {
	BehindCount     int
	AheadCount      int
	IncomingCommits []CommitInfo
	IncomingFiles   []IncomingFile
}

// Resolution is how a single conflicted path gets settled.
type Resolution string

const (
	ResolutionOurs         Resolution = "ours"
	ResolutionTheirs       Resolution = "theirs"
	ResolutionMarkResolved Resolution = "mark-resolved"
)

var Resolutions = []Resolution{ResolutionOurs, ResolutionTheirs, ResolutionMarkResolved}

func ParseResolution(s string) (Resolution, error) {
	for _, r := range Resolutions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resolution %q: expected one of ours, theirs, mark-resolved", s)
}

// Identity is the author recorded on every commit the client creates.
type Identity struct {
	Name  string
	Email string
}

func (i Identity) signature() git.Signature {
	return git.Signature{Name: i.Name, Email: i.Email}
}

// Auth carries the credential used for fetch and push.
type Auth struct {
	Token string
}

func (a Auth) method() transport.AuthMethod {
	return git.AuthMethod(a.Token)
}
