package cmd

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/gitsync/internal/concurrency"
	"github.com/speakeasy-api/gitsync/internal/config"
	"github.com/speakeasy-api/gitsync/internal/env"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withClient opens the repository selected by --dir, holds the repository
// lock for the duration of fn and hands it a client.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *gitsync.GitClient) error) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}

	identity := gitsync.Identity{Name: config.GetAuthorName(), Email: config.GetAuthorEmail()}
	client, err := gitsync.Open(dir, identity, gitsync.WithDefaultRemote(config.GetRemote()))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if !env.IsConcurrencyLockDisabled() {
		mutex, err := concurrency.New(client.LockPath())
		if err != nil {
			return err
		}
		if err := mutex.LockContext(ctx); err != nil {
			return fmt.Errorf("another gitsync process is working on this repository: %w", err)
		}
		defer func() {
			if err := mutex.Unlock(); err != nil {
				log.From(ctx).Warn("failed to release repository lock", zap.Error(err))
			}
		}()
	}

	return fn(ctx, client)
}

func getAuth(cmd *cobra.Command) (gitsync.Auth, error) {
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return gitsync.Auth{}, err
	}
	if token == "" {
		token = config.GetToken()
	}
	return gitsync.Auth{Token: token}, nil
}
