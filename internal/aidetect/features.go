package aidetect

import (
	"fmt"
	"strings"
)

// FeatureID names one heuristic signal. The set is closed: AllFeatures lists
// every valid identifier in canonical order.
type FeatureID string

const (
	FeatureAIPatterns          FeatureID = "ai_patterns"
	FeatureTransitions         FeatureID = "transitions"
	FeatureHedging             FeatureID = "hedging"
	FeatureRepetition          FeatureID = "repetition"
	FeatureVocabDiversity      FeatureID = "vocab_diversity"
	FeatureSentenceStructure   FeatureID = "sentence_structure"
	FeatureUniformity          FeatureID = "uniformity"
	FeatureBurstiness          FeatureID = "burstiness"
	FeatureDrawingDescriptions FeatureID = "drawing_descriptions"
)

var AllFeatures = []FeatureID{
	FeatureAIPatterns,
	FeatureTransitions,
	FeatureHedging,
	FeatureRepetition,
	FeatureVocabDiversity,
	FeatureSentenceStructure,
	FeatureUniformity,
	FeatureBurstiness,
	FeatureDrawingDescriptions,
}

func (f FeatureID) Valid() bool {
	for _, known := range AllFeatures {
		if f == known {
			return true
		}
	}
	return false
}

func ParseFeature(name string) (FeatureID, error) {
	f := FeatureID(strings.ToLower(strings.TrimSpace(name)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown feature %q", name)
	}
	return f, nil
}

// FeatureScore is one analyzer's output. Score is always within [0,1].
type FeatureScore struct {
	Score       float64 `json:"score" yaml:"score"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

type Scores map[FeatureID]FeatureScore

// Raw returns the bare score of f, or false when f was not produced.
func (s Scores) Raw(f FeatureID) (float64, bool) {
	fs, ok := s[f]
	return fs.Score, ok
}
