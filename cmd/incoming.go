package cmd

import (
	"context"

	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/git"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"github.com/spf13/cobra"
)

var incomingCmd = &cobra.Command{
	Use:   "incoming [branch]",
	Short: "Show what a pull would bring in, without merging",
	Args:  cobra.MaximumNArgs(1),
	RunE:  incomingExec,
}

func incomingInit() {
	rootCmd.AddCommand(incomingCmd)
}

func incomingExec(cmd *cobra.Command, args []string) error {
	var branch string
	if len(args) > 0 {
		branch = args[0]
	}

	auth, err := getAuth(cmd)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		l := log.From(ctx)

		res, err := client.GetFetchStatus(ctx, auth, branch)
		if err != nil {
			return err
		}

		l.Printf("%s behind, %s ahead", utils.Pluralize(res.BehindCount, "commit"), utils.Pluralize(res.AheadCount, "commit"))

		for _, c := range res.IncomingCommits {
			l.Println(renderCommit(c))
		}

		if len(res.IncomingFiles) > 0 {
			l.Println("")
		}
		for _, f := range res.IncomingFiles {
			style := styles.Warning
			switch f.Status {
			case git.ChangeAdded:
				style = styles.Success
			case git.ChangeDeleted:
				style = styles.Error
			}
			l.Printf("%s %s", style.Width(10).Render(string(f.Status)), f.Path)
		}

		return nil
	})
}
