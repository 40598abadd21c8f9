package merging

import (
	"strings"
	"testing"
)

func TestTextMerger_Merge_CleanMerge(t *testing.T) {
	// Ours changed line 2, theirs changed line 4
	// Non-overlapping changes should merge cleanly
	base := []byte("line 1\nline 2\nline 3\nline 4\n")
	ours := []byte("line 1\nline 2 changed locally\nline 3\nline 4\n")
	theirs := []byte("line 1\nline 2\nline 3\nline 4 changed upstream\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusClean {
		t.Errorf("Expected MergeStatusClean, got %v", result.Status)
	}

	if result.HasConflicts {
		t.Error("Expected no conflicts")
	}

	content := string(result.Content)
	if !strings.Contains(content, "line 2 changed locally") {
		t.Error("Local change to line 2 was lost")
	}
	if !strings.Contains(content, "line 4 changed upstream") {
		t.Error("Upstream change to line 4 was lost")
	}
}

func TestTextMerger_Merge_ExactBytes(t *testing.T) {
	long := strings.Repeat("x", 70*1024)

	tests := []struct {
		name   string
		base   string
		ours   string
		theirs string
		want   string
	}{
		{
			name:   "trailing newline",
			base:   "l1\nl2\nl3\nl4\nl5\n",
			ours:   "OURS\nl2\nl3\nl4\nl5\n",
			theirs: "l1\nl2\nl3\nl4\nTHEIRS\n",
			want:   "OURS\nl2\nl3\nl4\nTHEIRS\n",
		},
		{
			name:   "crlf",
			base:   "l1\r\nl2\r\nl3\r\nl4\r\nl5\r\n",
			ours:   "OURS\r\nl2\r\nl3\r\nl4\r\nl5\r\n",
			theirs: "l1\r\nl2\r\nl3\r\nl4\r\nTHEIRS\r\n",
			want:   "OURS\r\nl2\r\nl3\r\nl4\r\nTHEIRS\r\n",
		},
		{
			name:   "no final newline",
			base:   "a\nb\nc\nd",
			ours:   "A\nb\nc\nd",
			theirs: "a\nb\nc\nD",
			want:   "A\nb\nc\nD",
		},
		{
			name:   "line longer than a scanner token",
			base:   "head\n" + long + "\ntail\n",
			ours:   "HEAD\n" + long + "\ntail\n",
			theirs: "head\n" + long + "\nTAIL\n",
			want:   "HEAD\n" + long + "\nTAIL\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merger := NewTextMerger("main", "origin/main")
			result, err := merger.Merge([]byte(tt.base), []byte(tt.ours), []byte(tt.theirs))
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if result.Status != MergeStatusClean {
				t.Errorf("Expected MergeStatusClean, got %v", result.Status)
			}
			if string(result.Content) != tt.want {
				t.Errorf("Merge() content = %q, want %q", result.Content, tt.want)
			}
		})
	}
}

func TestTextMerger_Merge_GitMarkers(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		ours   string
		theirs string
		want   string
	}{
		{
			name:   "lf",
			base:   "line1\nline2\n",
			ours:   "ours\nline2\n",
			theirs: "theirs\nline2\n",
			want:   "<<<<<<< main\nours\n=======\ntheirs\n>>>>>>> origin/main\nline2\n",
		},
		{
			name:   "crlf",
			base:   "line1\r\nline2\r\n",
			ours:   "ours\r\nline2\r\n",
			theirs: "theirs\r\nline2\r\n",
			want:   "<<<<<<< main\r\nours\r\n=======\r\ntheirs\r\n>>>>>>> origin/main\r\nline2\r\n",
		},
		{
			name:   "unterminated last line",
			base:   "a\nb",
			ours:   "a\nmine",
			theirs: "a\nyours",
			want:   "a\n<<<<<<< main\nmine\n=======\nyours\n>>>>>>> origin/main\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merger := NewTextMerger("main", "origin/main")
			result, err := merger.Merge([]byte(tt.base), []byte(tt.ours), []byte(tt.theirs))
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if result.Status != MergeStatusConflict {
				t.Errorf("Expected MergeStatusConflict, got %v", result.Status)
			}
			if string(result.Content) != tt.want {
				t.Errorf("Merge() content = %q, want %q", result.Content, tt.want)
			}
			if len(result.Conflicts) != 1 {
				t.Errorf("Expected 1 conflict, got %d", len(result.Conflicts))
			}
		})
	}
}

func TestTextMerger_Merge_ConflictMarkers(t *testing.T) {
	// Both sides changed line 2 - should create conflict
	base := []byte("line 1\nline 2\nline 3\n")
	ours := []byte("line 1\nline 2 changed locally\nline 3\n")
	theirs := []byte("line 1\nline 2 changed upstream\nline 3\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusConflict {
		t.Errorf("Expected MergeStatusConflict, got %v", result.Status)
	}

	if !result.HasConflicts {
		t.Error("Expected HasConflicts to be true")
	}

	content := string(result.Content)

	// Verify conflict markers are present
	if !strings.Contains(content, "<<<<<<<") {
		t.Error("Missing conflict start marker")
	}
	if !strings.Contains(content, "=======") {
		t.Error("Missing conflict separator")
	}
	if !strings.Contains(content, ">>>>>>>") {
		t.Error("Missing conflict end marker")
	}

	// Verify both versions are present in the conflict
	if !strings.Contains(content, "changed locally") {
		t.Error("Local version missing from conflict markers")
	}
	if !strings.Contains(content, "changed upstream") {
		t.Error("Upstream version missing from conflict markers")
	}

	// Verify conflicts were parsed
	if len(result.Conflicts) == 0 {
		t.Error("Expected conflicts to be parsed and recorded")
	}
}

func TestTextMerger_Merge_FastForward_IdenticalContent(t *testing.T) {
	// Ours and theirs are identical - no merge needed
	base := []byte("line 1\nline 2\n")
	ours := []byte("line 1\nline 2\nline 3\n")
	theirs := []byte("line 1\nline 2\nline 3\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusFastForward {
		t.Errorf("Expected MergeStatusFastForward, got %v", result.Status)
	}

	if string(result.Content) != string(ours) {
		t.Error("Content should match ours")
	}
}

func TestTextMerger_Merge_FastForward_OursUnchanged(t *testing.T) {
	// Ours made no changes, theirs did
	// Should fast-forward to their content
	base := []byte("line 1\nline 2\n")
	ours := []byte("line 1\nline 2\n") // Same as base
	theirs := []byte("line 1\nline 2\nline 3\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusFastForward {
		t.Errorf("Expected MergeStatusFastForward, got %v", result.Status)
	}

	if string(result.Content) != string(theirs) {
		t.Error("Content should match theirs")
	}
}

func TestTextMerger_Merge_TheirsUnchanged(t *testing.T) {
	// Theirs made no changes, ours did
	// Should keep our version
	base := []byte("line 1\nline 2\n")
	ours := []byte("line 1\nline 2\nlocal addition\n")
	theirs := []byte("line 1\nline 2\n") // Same as base

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusFastForward {
		t.Errorf("Expected MergeStatusFastForward, got %v", result.Status)
	}

	if string(result.Content) != string(ours) {
		t.Error("Content should match ours")
	}
}

func TestTextMerger_Merge_BothAdded(t *testing.T) {
	// No base means both sides created the file
	var base []byte = nil
	ours := []byte("local version\n")
	theirs := []byte("incoming version\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusConflict {
		t.Errorf("Expected MergeStatusConflict, got %v", result.Status)
	}

	content := string(result.Content)
	if !HasConflictMarkers(content) {
		t.Error("Expected conflict markers for differing additions")
	}
	if !strings.Contains(content, "local version") || !strings.Contains(content, "incoming version") {
		t.Error("Both additions should be present in the conflict")
	}
}

func TestTextMerger_Merge_Binary(t *testing.T) {
	base := []byte("bin\x00base")
	ours := []byte("bin\x00ours")
	theirs := []byte("bin\x00theirs")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusBinary {
		t.Errorf("Expected MergeStatusBinary, got %v", result.Status)
	}
	if !result.HasConflicts {
		t.Error("Expected HasConflicts to be true")
	}
	if string(result.Content) != string(ours) {
		t.Error("Binary conflicts keep our content")
	}
}

func TestTextMerger_Merge_MultipleConflicts(t *testing.T) {
	// Multiple conflicting regions
	base := []byte("line 1\nline 2\nline 3\nline 4\n")
	ours := []byte("line 1 local\nline 2\nline 3 local\nline 4\n")
	theirs := []byte("line 1 upstream\nline 2\nline 3 upstream\nline 4\n")

	merger := NewTextMerger("main", "origin/main")
	result, err := merger.Merge(base, ours, theirs)

	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if result.Status != MergeStatusConflict {
		t.Errorf("Expected MergeStatusConflict, got %v", result.Status)
	}

	if !result.HasConflicts {
		t.Error("Expected HasConflicts to be true")
	}

	// Should have multiple conflicts parsed
	if len(result.Conflicts) < 2 {
		t.Errorf("Expected at least 2 conflicts, got %d", len(result.Conflicts))
	}
}

func TestParseConflictMarkers(t *testing.T) {
	content := `line 1
<<<<<<< main
local version
=======
upstream version
>>>>>>> origin/main
line 2
<<<<<<< main
another local change
=======
another upstream change
>>>>>>> origin/main
line 3`

	conflicts := ParseConflictMarkers(content)

	if len(conflicts) != 2 {
		t.Errorf("Expected 2 conflicts, got %d", len(conflicts))
	}

	// Check first conflict
	if conflicts[0].StartLine != 2 {
		t.Errorf("First conflict start line = %d, want 2", conflicts[0].StartLine)
	}
	if conflicts[0].EndLine != 6 {
		t.Errorf("First conflict end line = %d, want 6", conflicts[0].EndLine)
	}

	// Check second conflict
	if conflicts[1].StartLine != 8 {
		t.Errorf("Second conflict start line = %d, want 8", conflicts[1].StartLine)
	}
	if conflicts[1].EndLine != 12 {
		t.Errorf("Second conflict end line = %d, want 12", conflicts[1].EndLine)
	}
}

func TestParseConflictMarkers_NoConflicts(t *testing.T) {
	content := "line 1\nline 2\nline 3\n"

	conflicts := ParseConflictMarkers(content)

	if len(conflicts) != 0 {
		t.Errorf("Expected 0 conflicts, got %d", len(conflicts))
	}
}
