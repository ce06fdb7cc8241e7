package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"keeps punctuation editors use", "Take 3 (final), v2.1 - cut_a", 0, "Take 3 (final), v2.1 - cut_a"},
		{"drops control characters", "Intro\n\tTake\x00", 0, "IntroTake"},
		{"replaces path and shell characters", `ep1/ep2\*?:"<>|`, 0, "ep1_ep2________"},
		{"keeps non-latin letters", "Präsentation 東京", 0, "Präsentation 東京"},
		{"truncates by rune and trims", "interview  recording", 10, "interview"},
		{"trims surrounding space", "  padded  ", 0, "padded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.in, tc.maxLen); got != tc.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title, ext, want string
	}{
		{"Launch Demo", "edl", "Launch_Demo_timeline.edl"},
		{"Q3   all-hands  recording", "csv", "Q3_all-hands_recording_timeline.csv"},
		{"", "json", "video_timeline.json"},
		{"...", "csv", "video_timeline.csv"},
		{"../../etc/passwd", "json", "_.._etc_passwd_timeline.json"},
	}
	for _, tc := range tests {
		if got := Filename(tc.title, tc.ext); got != tc.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tc.title, tc.ext, got, tc.want)
		}
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cuts.json")
	if err := os.WriteFile(file, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := ValidateOutputDir(dir); err != nil {
		t.Errorf("ValidateOutputDir(tempdir) error = %v", err)
	}

	bad := map[string]string{
		"empty":     " ",
		"traversal": dir + "/../elsewhere",
		"unclean":   dir + "/./exports",
		"missing":   filepath.Join(dir, "exports"),
		"file":      file,
	}
	for name, path := range bad {
		if err := ValidateOutputDir(path); err == nil {
			t.Errorf("%s: ValidateOutputDir(%q) succeeded, want error", name, path)
		}
	}
}
