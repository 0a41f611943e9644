package prompts

import (
	"fmt"
	"strings"
)

const DetectionSystem = `SYSTEM: You are a forensic linguist and patent examiner.
TASK: Judge whether the document below was produced by a generative language model.
RULES:
- Judge writing style only, never technical merit.
- Look for uniform tone, hedging, generic phrasing and boilerplate.
- Give figure and drawing descriptions extra scrutiny.
- Be conservative: a false positive costs more than a false negative.
OUTPUT: valid JSON only.`

const DetectionTemplate = `Analyze the following patent-related text.

Return a JSON object with:
- ai_likelihood: number between 0.0 and 1.0
- rationale: short explanation
- red_flags: list of specific stylistic indicators
- confidence_notes: limitations or uncertainty

TEXT:
----------------
%s
----------------`

// DetectionUserPrompt embeds the (already truncated) document text.
func DetectionUserPrompt(text string) string {
	return strings.TrimSpace(fmt.Sprintf(DetectionTemplate, text))
}

// DetectionPrompt is the single-string form for completion endpoints.
func DetectionPrompt(text string) string {
	return strings.TrimSpace(DetectionSystem) + "\n\n" + DetectionUserPrompt(text)
}
