package cmd

import (
	"context"

	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull [remote] [branch]",
	Short: "Fetch and merge the remote branch into the current branch",
	Long: `Fetches the branch from the remote and merges it. Fast-forwards when possible.
When the merge conflicts, nothing is committed: conflicting files are left with markers
and a merge session is recorded until it is completed or aborted.`,
	Args: cobra.MaximumNArgs(2),
	RunE: pullExec,
}

func pullInit() {
	rootCmd.AddCommand(pullCmd)
}

func pullExec(cmd *cobra.Command, args []string) error {
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
		res, err := client.Pull(ctx, auth, remote, branch)
		if err != nil {
			return err
		}

		if !res.HadConflicts {
			return nil
		}

		lines := append([]string{}, res.ConflictFiles...)
		lines = append(lines, "Resolve each file with 'gitsync resolve <path>', then run 'gitsync complete'.")
		log.From(ctx).Println(styles.RenderInstructionalError(
			"Merge stopped with "+utils.Pluralize(len(res.ConflictFiles), "conflicting file"),
			lines...,
		))
		return nil
	})
}
