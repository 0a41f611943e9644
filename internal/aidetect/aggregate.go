package aidetect

import (
	"math"
	"sort"
)

const (
	hintMinScore = 0.6
	maxHints     = 3
)

var featureHints = map[FeatureID]string{
	FeatureAIPatterns:          "Rewrite stock phrases and filler in domain-specific terms.",
	FeatureTransitions:         "Reduce formal transition markers; let paragraph structure carry the argument.",
	FeatureHedging:             "Replace hedged qualifiers with committed statements where the facts allow.",
	FeatureRepetition:          "Vary repeated wording; a handful of words dominate the text.",
	FeatureVocabDiversity:      "Broaden vocabulary; lexical variety is below typical human writing.",
	FeatureSentenceStructure:   "Vary sentence length and construction.",
	FeatureUniformity:          "Vary sentence openings; many sentences start the same way.",
	FeatureBurstiness:          "Paragraph lengths are unusually even; check for templated sections.",
	FeatureDrawingDescriptions: "Check figure descriptions for consistent reference numerals and structural relationships.",
}

// WeightedSum adds weight*score over features present in both maps.
func WeightedSum(scores Scores, weights Weights) float64 {
	sum := 0.0
	for _, f := range AllFeatures {
		w, ok := weights[f]
		if !ok || math.IsNaN(w) {
			continue
		}
		fs, ok := scores[f]
		if !ok {
			continue
		}
		sum += w * fs.Score
	}
	return sum
}

// Aggregate combines feature scores into a Result. It never fails: missing
// weights contribute nothing and rules on absent features do not fire.
func Aggregate(scores Scores, cfg Config) Result {
	confidence, fired := applyRules(WeightedSum(scores, cfg.Weights), scores, cfg.Rules)
	confidence = clamp01(confidence)

	copied := make(Scores, len(scores))
	for k, v := range scores {
		copied[k] = v
	}
	return Result{
		IsLikelyAI:      confidence >= cfg.Threshold,
		Confidence:      confidence,
		Risk:            RiskFor(confidence),
		FeatureScores:   copied,
		Recommendations: Recommendations(confidence, scores),
		RulesFired:      fired,
	}
}

// Recommendations returns the confidence-tier advice followed by hints for
// the strongest features scoring at least 0.6.
func Recommendations(confidence float64, scores Scores) []string {
	var out []string
	switch {
	case confidence >= 0.75:
		out = append(out,
			"Perform manual review and cross-check with known prior art phrasing.",
			"Request author revision to reduce formulaic language and hedging.")
	case confidence >= 0.6:
		out = append(out,
			"Spot-check sections with repetitive starters and transitions.",
			"Encourage domain-specific terminology and concrete examples.")
	case confidence >= 0.4:
		out = append(out, "Consider minor edits to improve sentence variety and reduce filler.")
	default:
		out = append(out, "No immediate action needed; monitor writing style across documents.")
	}

	strong := make([]FeatureID, 0, len(AllFeatures))
	for _, f := range AllFeatures {
		if fs, ok := scores[f]; ok && fs.Score >= hintMinScore {
			strong = append(strong, f)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		return scores[strong[i]].Score > scores[strong[j]].Score
	})
	for i, f := range strong {
		if i == maxHints {
			break
		}
		out = append(out, featureHints[f])
	}
	return out
}
