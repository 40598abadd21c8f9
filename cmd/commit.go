package cmd

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage every change and commit it on the current branch",
	Args:  cobra.NoArgs,
	RunE:  commitExec,
}

var pushCmd = &cobra.Command{
	Use:   "push [remote] [branch]",
	Short: "Push the current branch to the remote",
	Args:  cobra.MaximumNArgs(2),
	RunE:  pushExec,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent commits on the current branch",
	Args:  cobra.NoArgs,
	RunE:  logExec,
}

func commitInit() {
	commitCmd.Flags().StringP("message", "m", "", "the commit message")
	_ = commitCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(commitCmd)
}

func pushInit() {
	rootCmd.AddCommand(pushCmd)
}

func logInit() {
	logCmd.Flags().IntP("limit", "n", 20, "the number of commits to show (0 for all)")
	rootCmd.AddCommand(logCmd)
}

func commitExec(cmd *cobra.Command, args []string) error {
	message, err := cmd.Flags().GetString("message")
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		_, err := client.CommitAll(ctx, message)
		return err
	})
}

func pushExec(cmd *cobra.Command, args []string) error {
	var remote, branch string
	if len(args) > 0 {
		remote = args[0]
	}
	if len(args) > 1 {
		branch = args[1]
	}

	auth, err := getAuth(cmd)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		return client.Push(ctx, auth, remote, branch)
	})
}

func logExec(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		commits, err := client.Log(ctx, limit)
		if err != nil {
			return err
		}

		l := log.From(ctx)
		for _, c := range commits {
			l.Println(renderCommit(c))
		}
		return nil
	})
}

func renderCommit(c gitsync.CommitInfo) string {
	return fmt.Sprintf("%s %s %s", styles.Focused.Render(c.Hash), c.Message, styles.Dimmed.Render(fmt.Sprintf("(%s, %s)", c.Author, c.Date)))
}
