package merging

import (
	"fmt"
	"sync"

	"github.com/speakeasy-api/gitsync/internal/git"
)

// GitHistoryProvider implements HistoryProvider using the local git repository.
// Blobs are cached because a tree merge reads the same base blobs for several comparisons.
type GitHistoryProvider struct {
	repo *git.Repository

	mu    sync.Mutex
	cache map[string][]byte
}

// NewGitHistoryProvider creates a new provider backed by the given git repository.
func NewGitHistoryProvider(repo *git.Repository) *GitHistoryProvider {
	return &GitHistoryProvider{
		repo:  repo,
		cache: map[string][]byte{},
	}
}

// Blob retrieves the blob content for the given hash.
func (p *GitHistoryProvider) Blob(blobHash string) ([]byte, error) {
	if blobHash == "" {
		return nil, fmt.Errorf("no blob hash provided")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if content, ok := p.cache[blobHash]; ok {
		return content, nil
	}

	content, err := p.repo.GetBlob(blobHash)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve blob %s: %w", blobHash, err)
	}
	p.cache[blobHash] = content

	return content, nil
}
