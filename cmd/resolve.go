package cmd

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"github.com/speakeasy-api/gitsync/prompts"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path...]",
	Short: "Resolve conflicted files",
	Long: `Resolves each given path by taking our side, their side, or marking the current
working copy as resolved. Without paths, every unresolved conflict is visited.
Without --with, you are asked for each file when running in a terminal.`,
	RunE: resolveExec,
}

func resolveInit() {
	resolveCmd.Flags().String("with", "", "how to resolve: ours, theirs or mark-resolved")
	rootCmd.AddCommand(resolveCmd)
}

func resolveExec(cmd *cobra.Command, args []string) error {
	with, err := cmd.Flags().GetString("with")
	if err != nil {
		return err
	}

	var resolution gitsync.Resolution
	if with != "" {
		if resolution, err = gitsync.ParseResolution(with); err != nil {
			return err
		}
	} else if !utils.IsInteractive() {
		return fmt.Errorf("--with is required when not running in a terminal")
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		files, err := client.GetConflictFiles(ctx)
		if err != nil {
			return err
		}

		targets := lo.Filter(files, func(f gitsync.ConflictFile, _ int) bool { return !f.Resolved })
		if len(args) > 0 {
			byPath := lo.KeyBy(files, func(f gitsync.ConflictFile) string { return f.Path })
			targets = lo.Map(args, func(p string, _ int) gitsync.ConflictFile {
				if f, ok := byPath[p]; ok {
					return f
				}
				return gitsync.ConflictFile{Path: p, Status: gitsync.ConflictBothModified}
			})
		}

		if len(targets) == 0 {
			log.From(ctx).Info("nothing to resolve")
			return nil
		}

		for _, f := range targets {
			r := resolution
			if r == "" {
				if r, err = prompts.PromptForResolution(f); err != nil {
					return err
				}
			}
			if err := client.ResolveConflict(ctx, f.Path, r); err != nil {
				return err
			}
		}

		unresolved := 0
		if files, err = client.GetConflictFiles(ctx); err != nil {
			return err
		}
		for _, f := range files {
			if !f.Resolved {
				unresolved++
			}
		}

		if unresolved == 0 {
			log.From(ctx).Success("all conflicts resolved; run 'gitsync complete' to record the merge")
		} else {
			log.From(ctx).Warnf("%s still unresolved", utils.Pluralize(unresolved, "file"))
		}

		return nil
	})
}
