package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystem(t *testing.T) {
	got := ApplySystem("  Extract the order.  ", ModeJSON)
	if !strings.HasPrefix(got, marker) {
		t.Fatalf("missing marker: %q", got)
	}
	if !strings.HasSuffix(got, "---\nExtract the order.") {
		t.Fatalf("base prompt should follow the guidance block: %q", got)
	}
	if !strings.Contains(got, "JSON object") {
		t.Fatalf("json mode guidance missing")
	}
	if again := ApplySystem(got, ModeJSON); again != got {
		t.Fatalf("ApplySystem should be idempotent")
	}
	if text := ApplySystem("Chat.", ModeText); strings.Contains(text, "JSON object") {
		t.Fatalf("text mode should not mention JSON")
	}
	if ApplySystem("   ", ModeJSON) != "" {
		t.Fatalf("blank prompt should stay blank")
	}
}
