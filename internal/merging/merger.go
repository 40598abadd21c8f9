package merging

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/epiclabs-io/diff3"
)

const binarySniffLen = 8000

// TextMerger implements a text-based 3-way merge using the diff3 algorithm.
// It performs proper 3-way merge with automatic resolution of non-overlapping changes
// and injection of Git-style conflict markers for overlapping changes.
type TextMerger struct {
	OursLabel   string
	TheirsLabel string
}

// NewTextMerger returns a merger whose conflict markers are labelled with the two ref names.
func NewTextMerger(oursLabel, theirsLabel string) *TextMerger {
	return &TextMerger{OursLabel: oursLabel, TheirsLabel: theirsLabel}
}

// Merge performs a 3-way merge: Merge(base, ours, theirs)
// - base: content at the merge base, nil when both sides added the file
// - ours: the local branch version
// - theirs: the incoming version
//
// Returns:
// - MergeStatusFastForward: the sides agree, or one side equals the base
// - MergeStatusClean: both sides changed and diff3 merged them
// - MergeStatusConflict: overlapping changes, conflict markers injected
// - MergeStatusBinary: differing binary content, ours is kept without markers
func (m *TextMerger) Merge(base, ours, theirs []byte) (*MergeResult, error) {
	res := &MergeResult{
		Status: MergeStatusClean,
	}

	// 1. Fast path: Identical content
	if bytes.Equal(ours, theirs) {
		res.Content = ours
		res.Status = MergeStatusFastForward
		return res, nil
	}

	// 2. Only one side moved away from the base
	if base != nil && bytes.Equal(ours, base) {
		res.Content = theirs
		res.Status = MergeStatusFastForward
		return res, nil
	}
	if base != nil && bytes.Equal(theirs, base) {
		res.Content = ours
		res.Status = MergeStatusFastForward
		return res, nil
	}

	// 3. Binary content cannot be merged line by line
	if IsBinary(base) || IsBinary(ours) || IsBinary(theirs) {
		res.Content = ours
		res.Status = MergeStatusBinary
		res.HasConflicts = true
		return res, nil
	}

	// 4. Perform 3-way merge using diff3. A missing base merges against empty content.
	// diff3 splits on bufio.Scanner lines and rejoins with "\n", so it is fed
	// interned line ids and the real lines, terminators included, are restored after.
	lines := &lineTable{ids: map[string]int{}}
	result, err := diff3.Merge(
		lines.encode(ours),   // A (ours)
		lines.encode(base),   // O (original/base)
		lines.encode(theirs), // B (theirs)
		true,                 // includeConflicts - inject markers
		m.OursLabel,
		m.TheirsLabel,
	)
	if err != nil {
		return nil, fmt.Errorf("diff3 merge failed: %w", err)
	}

	encoded, err := io.ReadAll(result.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge result: %w", err)
	}

	mergedBytes, err := lines.decode(string(encoded), lineEnding(ours, theirs), m.OursLabel, m.TheirsLabel)
	if err != nil {
		return nil, err
	}

	res.Content = mergedBytes

	if result.Conflicts {
		res.Status = MergeStatusConflict
		res.HasConflicts = true
		res.Conflicts = ParseConflictMarkers(string(mergedBytes))
	}

	return res, nil
}

// lineTable maps every distinct line, terminator included, to a numeric id.
type lineTable struct {
	ids   map[string]int
	lines []string
}

func (t *lineTable) encode(content []byte) io.Reader {
	var b strings.Builder
	for _, line := range splitLines(content) {
		id, ok := t.ids[line]
		if !ok {
			id = len(t.lines)
			t.ids[line] = id
			t.lines = append(t.lines, line)
		}
		b.WriteString(strconv.Itoa(id))
		b.WriteByte('\n')
	}
	return strings.NewReader(b.String())
}

// decode turns diff3 output back into file content, writing git's seven
// character conflict markers in place of the library's own.
func (t *lineTable) decode(encoded, eol, oursLabel, theirsLabel string) ([]byte, error) {
	var out bytes.Buffer
	marker := func(m, label string) {
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
			out.WriteString(eol)
		}
		out.WriteString(m)
		if label != "" {
			out.WriteString(" " + label)
		}
		out.WriteString(eol)
	}

	for _, tok := range strings.Split(encoded, "\n") {
		switch {
		case tok == "":
		case strings.HasPrefix(tok, "<<<<<<<<<"):
			marker(markerOurs, oursLabel)
		case tok == "=========":
			marker(markerSep, "")
		case strings.HasPrefix(tok, ">>>>>>>>>"):
			marker(markerTheirs, theirsLabel)
		default:
			id, err := strconv.Atoi(tok)
			if err != nil || id < 0 || id >= len(t.lines) {
				return nil, fmt.Errorf("unexpected diff3 output line %q", tok)
			}
			out.WriteString(t.lines[id])
		}
	}

	return out.Bytes(), nil
}

// splitLines splits after every "\n", keeping it. A final line without a
// terminator is kept as is.
func splitLines(content []byte) []string {
	var lines []string
	for len(content) > 0 {
		i := bytes.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, string(content))
			break
		}
		lines = append(lines, string(content[:i+1]))
		content = content[i+1:]
	}
	return lines
}

// lineEnding picks the terminator for marker lines: CRLF when the first side
// that has line breaks uses it.
func lineEnding(sides ...[]byte) string {
	for _, s := range sides {
		if i := bytes.IndexByte(s, '\n'); i >= 0 {
			if i > 0 && s[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}

// IsBinary applies git's heuristic: a NUL byte in the first 8000 bytes.
func IsBinary(content []byte) bool {
	if len(content) > binarySniffLen {
		content = content[:binarySniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}
