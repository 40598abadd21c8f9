package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show uncommitted changes in the working copy",
	Long:  `Lists every added, modified, deleted and untracked path, and whether a merge is in progress.`,
	Args:  cobra.NoArgs,
	RunE:  statusExec,
}

func statusInit() {
	rootCmd.AddCommand(statusCmd)
}

func statusExec(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		l := log.From(ctx)

		branch, err := client.CurrentBranch()
		if err != nil {
			l.Warn("HEAD is detached")
		} else {
			l.Printf("On branch %s", styles.MakeBold(branch))
		}

		inProgress, err := client.MergeInProgress(ctx)
		if err != nil {
			return err
		}
		if inProgress {
			l.PrintfStyled(styles.Warning, "A merge is in progress. Run 'gitsync conflicts' to see what is left to resolve.")
		}

		status, err := client.Status(ctx)
		if err != nil {
			return err
		}

		if !status.HasUncommittedChanges {
			l.PrintfStyled(styles.Dimmed, "Nothing to commit, working tree clean")
			return nil
		}

		for _, change := range status.Changes {
			l.Println(renderChange(change))
		}

		return nil
	})
}

func changeStyle(status gitsync.ChangeStatus) lipgloss.Style {
	switch status {
	case gitsync.ChangeAdded:
		return styles.Success
	case gitsync.ChangeDeleted:
		return styles.Error
	case gitsync.ChangeUntracked:
		return styles.Dimmed
	default:
		return styles.Warning
	}
}

func renderChange(change gitsync.FileChange) string {
	return fmt.Sprintf("%s %s", changeStyle(change.Status).Width(10).Render(string(change.Status)), change.Path)
}
