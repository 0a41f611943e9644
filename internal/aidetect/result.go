package aidetect

import "fmt"

type RiskBucket string

const (
	RiskMinimal RiskBucket = "minimal"
	RiskLow     RiskBucket = "low"
	RiskMedium  RiskBucket = "medium"
	RiskHigh    RiskBucket = "high"
)

// Risk bands: minimal < 0.40 <= low < 0.60 <= medium < 0.75 <= high.
func RiskFor(confidence float64) RiskBucket {
	switch {
	case confidence >= 0.75:
		return RiskHigh
	case confidence >= 0.60:
		return RiskMedium
	case confidence >= 0.40:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// Result is the outcome of one analysis. Callers own it; nothing in this
// package retains or mutates a Result after returning it.
type Result struct {
	IsLikelyAI      bool       `json:"is_likely_ai_generated"`
	Confidence      float64    `json:"confidence_score"`
	Risk            RiskBucket `json:"risk_level"`
	FeatureScores   Scores     `json:"feature_scores"`
	Recommendations []string   `json:"recommendations"`
	RulesFired      []string   `json:"rules_fired,omitempty"`
}

func (r Result) Classification() string {
	if r.IsLikelyAI {
		return "likely AI-generated"
	}
	return "likely human-written"
}

func (r Result) String() string {
	return fmt.Sprintf("%s (confidence %.2f, risk %s)", r.Classification(), r.Confidence, r.Risk)
}
