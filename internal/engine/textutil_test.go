package engine

import (
	"strings"
	"testing"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tags stripped", "<i>italic</i> and <b>bold</b>", "italic and bold"},
		{"single escape", "fish &amp; chips", "fish & chips"},
		{"double escape", "it&amp;#39;s", "it's"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"plain", "untouched", "untouched"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanHTML(tt.input); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	got := TruncateRunes("приветмир", 6, "...")
	if !strings.HasSuffix(got, "...") || !strings.HasPrefix(got, "при") {
		t.Errorf("got %q", got)
	}
	if got := TruncateRunes("short", 10, "..."); got != "short" {
		t.Errorf("got %q", got)
	}
}
