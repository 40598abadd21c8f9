package git

import (
	"context"
	"errors"
	"fmt"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrRemoteRefNotFound is returned by Fetch when the remote has no such branch.
var ErrRemoteRefNotFound = errors.New("remote reference not found")

// Fetch updates refs/remotes/<remote>/<branch> from the remote's branch.
func (r *Repository) Fetch(ctx context.Context, remote, branch string, auth transport.AuthMethod) error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	err := r.repo.FetchContext(ctx, &gitc.FetchOptions{
		RemoteName: remote,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)),
		},
		Auth: auth,
	})

	switch {
	case err == nil, errors.Is(err, gitc.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, gitc.NoMatchingRefSpecError{}), errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("%s/%s: %w", remote, branch, ErrRemoteRefNotFound)
	default:
		return err
	}
}

// Push sends refs/heads/<branch> to the same branch on the remote.
func (r *Repository) Push(ctx context.Context, remote, branch string, auth transport.AuthMethod) error {
	if r.IsNil() {
		return ErrNotInitialized
	}

	err := r.repo.PushContext(ctx, &gitc.PushOptions{
		RemoteName: remote,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
		},
		Auth: auth,
	})
	if err != nil && !errors.Is(err, gitc.NoErrAlreadyUpToDate) {
		return err
	}

	return nil
}
