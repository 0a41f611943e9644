package prompts

import (
	"strings"
	"testing"
)

func TestDetectionPromptEmbedsText(t *testing.T) {
	p := DetectionPrompt("  FIG. 1 shows a housing 10.  ")
	if !strings.HasPrefix(p, "SYSTEM:") {
		t.Fatalf("expected system preamble first, got %q", p[:20])
	}
	if !strings.Contains(p, "FIG. 1 shows a housing 10.") {
		t.Fatal("expected document text in prompt")
	}
	for _, key := range []string{"ai_likelihood", "rationale", "red_flags", "confidence_notes"} {
		if !strings.Contains(p, key) {
			t.Fatalf("expected prompt to request %s", key)
		}
	}
}
