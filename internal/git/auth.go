package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitHttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// BasicAuth creates a go-git BasicAuth credential from an access token.
// The token is sent as the username, which is how token-based git hosts accept it.
// Returns nil if accessToken is empty.
func BasicAuth(accessToken string) *gitHttp.BasicAuth {
	if accessToken == "" {
		return nil
	}
	return &gitHttp.BasicAuth{
		Username: accessToken,
		Password: "x-oauth-basic",
	}
}

// AuthMethod is BasicAuth as a transport.AuthMethod, returning an untyped nil
// for an empty token so anonymous and file transports are not handed a nil pointer.
func AuthMethod(accessToken string) transport.AuthMethod {
	if auth := BasicAuth(accessToken); auth != nil {
		return auth
	}
	return nil
}
