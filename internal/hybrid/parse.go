package hybrid

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type wireAssessment struct {
	Likelihood      json.RawMessage `json:"ai_likelihood"`
	Rationale       string          `json:"rationale"`
	RedFlags        json.RawMessage `json:"red_flags"`
	ConfidenceNotes string          `json:"confidence_notes"`
}

// ParseAssessment decodes a model reply. It tries the reply as JSON first,
// then the outermost {...} block inside it, so prose or code fences around
// the object are tolerated.
func ParseAssessment(raw string) (Assessment, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if block := jsonObject.FindString(raw); block != "" {
		candidates = append(candidates, block)
	}

	var lastErr error
	for _, c := range candidates {
		a, err := decodeAssessment(c)
		if err == nil {
			return a, nil
		}
		lastErr = err
	}
	return Assessment{}, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
}

func decodeAssessment(s string) (Assessment, error) {
	var w wireAssessment
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return Assessment{}, err
	}
	if len(w.Likelihood) == 0 {
		return Assessment{}, fmt.Errorf("missing ai_likelihood")
	}
	likelihood, err := strconv.ParseFloat(strings.Trim(string(w.Likelihood), `" `), 64)
	if err != nil {
		return Assessment{}, fmt.Errorf("ai_likelihood: %w", err)
	}
	return Assessment{
		Likelihood:      clamp01(likelihood),
		Rationale:       strings.TrimSpace(w.Rationale),
		RedFlags:        decodeRedFlags(w.RedFlags),
		ConfidenceNotes: strings.TrimSpace(w.ConfidenceNotes),
	}, nil
}

// decodeRedFlags accepts a list of strings or a single string.
func decodeRedFlags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && strings.TrimSpace(one) != "" {
		return []string{strings.TrimSpace(one)}
	}
	return nil
}
