package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/speakeasy-api/gitsync/internal/merging"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"golang.org/x/term"
)

var (
	emphasized = lipgloss.NewStyle().Bold(true)

	Info    = emphasized.Foreground(Colors.Blue)
	Warning = emphasized.Foreground(Colors.Yellow)
	Error   = emphasized.Foreground(Colors.Red)
	Success = emphasized.Foreground(Colors.Green)

	Focused = lipgloss.NewStyle().Foreground(Colors.Yellow)

	Dimmed       = lipgloss.NewStyle().Foreground(Colors.Grey)
	DimmedItalic = Dimmed.Italic(true)

	Colors = struct {
		Yellow, Red, Green, Grey, Blue lipgloss.AdaptiveColor
	}{
		Yellow: lipgloss.AdaptiveColor{Dark: "#FBE331", Light: "#C0A802"},
		Red:    lipgloss.AdaptiveColor{Dark: "#D93337", Light: "#54121B"},
		Green:  lipgloss.AdaptiveColor{Dark: "#63AC67", Light: "#5B8537"},
		Grey:   lipgloss.AdaptiveColor{Dark: "#8A887D", Light: "#68675F"},
		Blue:   lipgloss.AdaptiveColor{Dark: "#679FE1", Light: "#1D2A3A"},
	}
)

// ConflictKindToStyle colors a conflict kind in listings.
func ConflictKindToStyle(kind merging.ConflictKind) lipgloss.Style {
	switch kind {
	case merging.ConflictDeletedByUs, merging.ConflictDeletedByThem:
		return Warning
	case merging.ConflictBothAdded:
		return Info
	default:
		return Error
	}
}

// RenderSuccessMessage boxes a heading with dimmed detail lines, centered.
func RenderSuccessMessage(heading string, additionalLines ...string) string {
	s := Success.Render(utils.CapitalizeFirst(heading))
	for _, line := range additionalLines {
		s += "\n" + Dimmed.Render(line)
	}

	return boxed(s, Colors.Green, lipgloss.Center)
}

// RenderInstructionalError boxes a heading and the steps that get the user unstuck.
func RenderInstructionalError(heading string, additionalLines ...string) string {
	s := Error.Render(utils.CapitalizeFirst(heading + "\n"))
	for _, line := range additionalLines {
		s += "\n\n" + Error.Render(line)
	}

	return boxed(s, Colors.Red, lipgloss.Left)
}

func MakeBold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}

// LeftBorder frames a block of file content with a colored gutter.
func LeftBorder(color lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(color).
		PaddingLeft(1)
}

// boxed wraps s in a rounded border no wider than the terminal.
func boxed(s string, borderColor lipgloss.AdaptiveColor, alignment lipgloss.Position) string {
	w := lipgloss.Width(s) + 2
	if termWidth, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && termWidth > 2 {
		w = min(termWidth-2, w)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		AlignHorizontal(alignment).
		Width(w).
		Render(s)
}
