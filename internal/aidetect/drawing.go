package aidetect

import (
	"fmt"
	"regexp"
	"strings"

	"doc_detector/internal/lexicon"
	"doc_detector/internal/textstats"
)

var (
	figureRef    = regexp.MustCompile(`(?i)\bfig(?:\.|ure)?\s*\d+\b`)
	referenceNum = regexp.MustCompile(`(?i)\b\d{1,4}[a-z]?\b`)
)

// analyzeDrawingDescriptions inspects sentences that cite a figure. The
// figure number itself is not an element reference. Element numerals used
// only once, fewer than two numerals per sentence and missing structural
// connectors all point at generic figure prose.
func analyzeDrawingDescriptions(_ string, st *textstats.Stats) FeatureScore {
	var figSentences []string
	for _, s := range st.Sentences {
		if figureRef.MatchString(s) {
			figSentences = append(figSentences, s)
		}
	}
	if len(figSentences) == 0 {
		return FeatureScore{0, "No figure description sentences detected."}
	}

	lex := lexicon.Default()
	refCounts := map[string]int{}
	refTotal := 0
	connectorHits := 0
	for _, s := range figSentences {
		body := figureRef.ReplaceAllString(s, " ")
		for _, ref := range referenceNum.FindAllString(body, -1) {
			refCounts[strings.ToLower(ref)]++
			refTotal++
		}
		if len(lex.ConnectorsIn(s)) > 0 {
			connectorHits++
		}
	}

	fs := float64(len(figSentences))
	if refTotal == 0 {
		return FeatureScore{0.9, fmt.Sprintf("No numeric references found in %d figure sentence(s); atypical for patent drawings.", len(figSentences))}
	}

	singletons := 0
	for _, c := range refCounts {
		if c == 1 {
			singletons++
		}
	}
	singletonRate := float64(singletons) / float64(len(refCounts))
	refsPerSentence := float64(refTotal) / fs
	connectorsPerSentence := float64(connectorHits) / fs

	density := clamp01((2.0 - refsPerSentence) / 2.0)
	missingConnectors := clamp01(1.0 - connectorsPerSentence)
	score := 0.45*clamp01(singletonRate) + 0.35*density + 0.20*missingConnectors

	return FeatureScore{
		Score: clamp01(score),
		Explanation: fmt.Sprintf("Figure sentences: %d, total refs: %d, unique refs: %d; singleton refs: %d (%.2f); refs/fig-sent: %.2f; connectors/fig-sent: %.2f.",
			len(figSentences), refTotal, len(refCounts), singletons, singletonRate, refsPerSentence, connectorsPerSentence),
	}
}
