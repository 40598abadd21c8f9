package prompts

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/gitsync"
)

// resolutionOptions describes each resolution in terms of what it does to path.
func resolutionOptions(status gitsync.ConflictStatus) []huh.Option[gitsync.Resolution] {
	ours := "Keep my version"
	theirs := "Take the incoming version"

	switch status {
	case gitsync.ConflictDeletedByUs:
		ours = "Keep it deleted"
	case gitsync.ConflictDeletedByThem:
		theirs = "Delete the file"
	}

	return []huh.Option[gitsync.Resolution]{
		huh.NewOption(ours, gitsync.ResolutionOurs),
		huh.NewOption(theirs, gitsync.ResolutionTheirs),
		huh.NewOption("I edited it myself, mark as resolved", gitsync.ResolutionMarkResolved),
	}
}

// PromptForResolution asks how a conflicted path should be resolved.
func PromptForResolution(file gitsync.ConflictFile) (gitsync.Resolution, error) {
	var choice gitsync.Resolution

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[gitsync.Resolution]().
				Title(fmt.Sprintf("How should %s be resolved?", file.Path)).
				Description(styles.ConflictKindToStyle(file.Status).Render(string(file.Status))).
				Options(resolutionOptions(file.Status)...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return "", err
	}

	return choice, nil
}

// PromptForMergeMessage asks for the merge commit message, prefilled with def.
func PromptForMergeMessage(def string) (string, error) {
	message := def

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Merge commit message").
				Value(&message).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a commit message is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return "", err
	}

	return message, nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(title, description string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
