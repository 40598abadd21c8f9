package merging

import "strings"

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerSep    = "======="
	markerTheirs = ">>>>>>>"
)

// HasConflictMarkers reports whether text carries all three conflict markers.
// A lone "=======" (a markdown rule, say) is not a conflict.
func HasConflictMarkers(text string) bool {
	return strings.Contains(text, markerOurs) &&
		strings.Contains(text, markerSep) &&
		strings.Contains(text, markerTheirs)
}

// ParseConflictMarkers scans the merged content for conflict markers
// and returns structured conflict information
func ParseConflictMarkers(content string) []Conflict {
	var conflicts []Conflict
	lines := strings.Split(content, "\n")

	var inConflict bool
	var startLine int

	for i, line := range lines {
		if strings.HasPrefix(line, markerOurs) {
			inConflict = true
			startLine = i + 1 // Line numbers are 1-indexed
		} else if strings.HasPrefix(line, markerTheirs) && inConflict {
			conflicts = append(conflicts, Conflict{
				StartLine: startLine,
				EndLine:   i + 1,
				Message:   "Overlapping changes between local and incoming versions",
			})
			inConflict = false
		}
	}

	return conflicts
}

type markerSection int

const (
	sectionCommon markerSection = iota
	sectionOurs
	sectionBase
	sectionTheirs
)

// ExtractFromConflictMarkers rebuilds both sides of a conflicted file from its
// marker text. Lines outside conflict blocks go to both sides and a diff3 base
// section goes to neither.
func ExtractFromConflictMarkers(content string) (ours, theirs string) {
	var oursLines, theirsLines []string
	section := sectionCommon

	for _, line := range strings.Split(content, "\n") {
		switch {
		case section == sectionCommon && strings.HasPrefix(line, markerOurs):
			section = sectionOurs
			continue
		case section == sectionOurs && strings.HasPrefix(line, markerBase):
			section = sectionBase
			continue
		case (section == sectionOurs || section == sectionBase) && strings.HasPrefix(line, markerSep):
			section = sectionTheirs
			continue
		case section == sectionTheirs && strings.HasPrefix(line, markerTheirs):
			section = sectionCommon
			continue
		}

		switch section {
		case sectionCommon:
			oursLines = append(oursLines, line)
			theirsLines = append(theirsLines, line)
		case sectionOurs:
			oursLines = append(oursLines, line)
		case sectionTheirs:
			theirsLines = append(theirsLines, line)
		}
	}

	return strings.Join(oursLines, "\n"), strings.Join(theirsLines, "\n")
}
