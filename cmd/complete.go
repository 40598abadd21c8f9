package cmd

import (
	"context"
	"errors"

	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"github.com/speakeasy-api/gitsync/prompts"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Record the resolved merge as a commit",
	Long:  `Creates the merge commit once every conflict is resolved, moves the branch to it and ends the merge session.`,
	Args:  cobra.NoArgs,
	RunE:  completeExec,
}

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abandon the merge in progress",
	Long:  `Restores tracked files to the commit the merge started from and ends the merge session. Untracked files are kept.`,
	Args:  cobra.NoArgs,
	RunE:  abortExec,
}

func completeInit() {
	completeCmd.Flags().StringP("message", "m", "", "the merge commit message")
	completeCmd.Flags().Bool("edit", false, "edit the merge commit message interactively")
	rootCmd.AddCommand(completeCmd)
}

func abortInit() {
	abortCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(abortCmd)
}

func completeExec(cmd *cobra.Command, args []string) error {
	message, err := cmd.Flags().GetString("message")
	if err != nil {
		return err
	}
	edit, err := cmd.Flags().GetBool("edit")
	if err != nil {
		return err
	}

	if edit && utils.IsInteractive() {
		if message, err = prompts.PromptForMergeMessage(message); err != nil {
			return err
		}
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		commit, err := client.CompleteMerge(ctx, message)

		var unresolved *gitsync.UnresolvedConflictsError
		if errors.As(err, &unresolved) {
			log.From(ctx).Println(styles.RenderInstructionalError(
				utils.Pluralize(unresolved.Count(), "file")+" still unresolved",
				append(append([]string{}, unresolved.Paths...), "Run 'gitsync resolve' for each of them first.")...,
			))
			return err
		} else if err != nil {
			return err
		}

		log.From(ctx).Println(styles.RenderSuccessMessage("merge complete", commit))
		return nil
	})
}

func abortExec(cmd *cobra.Command, args []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	if !yes && utils.IsInteractive() {
		confirmed, err := prompts.Confirm("Abort the merge?", "Tracked files will be reset to the state before the pull.")
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		return client.AbortMerge(ctx)
	})
}
