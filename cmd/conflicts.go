package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
	"github.com/speakeasy-api/gitsync/internal/log"
	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List conflicted files and whether each one is resolved",
	Args:  cobra.NoArgs,
	RunE:  conflictsExec,
}

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show both sides of a conflicted file",
	Args:  cobra.ExactArgs(1),
	RunE:  showExec,
}

func conflictsInit() {
	conflictsCmd.Flags().Bool("json", false, "print the conflicts as JSON")
	rootCmd.AddCommand(conflictsCmd)
}

func showInit() {
	showCmd.Flags().Bool("merged", false, "only print the current working copy of the file")
	rootCmd.AddCommand(showCmd)
}

func conflictsExec(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		l := log.From(ctx)

		files, err := client.GetConflictFiles(ctx)
		if err != nil {
			return err
		}

		if asJSON {
			out, err := json.MarshalIndent(files, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if len(files) == 0 {
			l.PrintfStyled(styles.Dimmed, "No conflicts")
			return nil
		}

		for _, f := range files {
			l.Println(renderConflict(f))
		}

		return nil
	})
}

func renderConflict(f gitsync.ConflictFile) string {
	state := styles.Error.Render("unresolved")
	if f.Resolved {
		state = styles.Success.Render("resolved")
	}
	return fmt.Sprintf("%s %s %s", styles.ConflictKindToStyle(f.Status).Width(16).Render(string(f.Status)), lipgloss.NewStyle().Width(12).Render(state), f.Path)
}

func showExec(cmd *cobra.Command, args []string) error {
	mergedOnly, err := cmd.Flags().GetBool("merged")
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client *gitsync.GitClient) error {
		l := log.From(ctx)

		content, err := client.GetConflictContent(ctx, args[0])
		if err != nil {
			return err
		}

		if mergedOnly {
			fmt.Print(content.MergedContent)
			return nil
		}

		l.PrintlnUnstyled(styles.LeftBorder(styles.Colors.Green).Render(styles.Success.Render("ours") + "\n" + content.OursContent))
		l.PrintlnUnstyled(styles.LeftBorder(styles.Colors.Blue).Render(styles.Info.Render("theirs") + "\n" + content.TheirsContent))
		l.PrintlnUnstyled(styles.LeftBorder(styles.Colors.Yellow).Render(styles.Warning.Render("working copy") + "\n" + content.MergedContent))

		return nil
	})
}
