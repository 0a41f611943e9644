package aidetect

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"doc_detector/internal/lexicon"
)

func fixedScores(v float64) Scores {
	out := Scores{}
	for _, f := range AllFeatures {
		out[f] = FeatureScore{Score: v, Explanation: "fixed"}
	}
	return out
}

func TestEmptyWeightsGiveZeroConfidence(t *testing.T) {
	res := Aggregate(fixedScores(0.9), Config{Threshold: 0.5})
	if res.Confidence != 0 {
		t.Fatalf("expected 0, got %f", res.Confidence)
	}
	if res.IsLikelyAI || res.Risk != RiskMinimal {
		t.Fatalf("expected minimal non-AI result, got %+v", res)
	}
}

func TestNoRulesMeansClampedWeightedSum(t *testing.T) {
	scores := fixedScores(0.5)
	cfg, err := Preset(PresetAggressive)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Rules = nil
	res := Aggregate(scores, cfg)
	want := WeightedSum(scores, cfg.Weights)
	if math.Abs(res.Confidence-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, res.Confidence)
	}

	heavy := Weights{FeatureAIPatterns: 3}
	if got := Aggregate(scores, Config{Weights: heavy}); got.Confidence != 1 {
		t.Fatalf("expected clamp to 1, got %f", got.Confidence)
	}
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	scores := Scores{FeatureAIPatterns: {Score: 0.5, Explanation: "x"}}
	res := Aggregate(scores, Config{Threshold: 0.5, Weights: Weights{FeatureAIPatterns: 1}})
	if !res.IsLikelyAI {
		t.Fatalf("confidence equal to threshold must classify as AI")
	}
	res = Aggregate(scores, Config{Threshold: 0.5000001, Weights: Weights{FeatureAIPatterns: 1}})
	if res.IsLikelyAI {
		t.Fatalf("confidence below threshold must not classify as AI")
	}
}

func TestRiskBucketBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		want       RiskBucket
	}{
		{0, RiskMinimal},
		{0.3999, RiskMinimal},
		{0.40, RiskLow},
		{0.5999, RiskLow},
		{0.60, RiskMedium},
		{0.7499, RiskMedium},
		{0.75, RiskHigh},
		{1, RiskHigh},
	}
	for _, tc := range cases {
		if got := RiskFor(tc.confidence); got != tc.want {
			t.Fatalf("RiskFor(%v): expected %s, got %s", tc.confidence, tc.want, got)
		}
	}
}

func TestEmptyTextWithBalancedPreset(t *testing.T) {
	res := Analyze("", DefaultConfig())
	if res.Confidence != 0 || res.IsLikelyAI || res.Risk != RiskMinimal {
		t.Fatalf("expected zero minimal result, got %+v", res)
	}
	if len(res.FeatureScores) != len(AllFeatures) {
		t.Fatalf("expected every feature scored, got %d", len(res.FeatureScores))
	}
	if len(res.Recommendations) == 0 {
		t.Fatalf("expected at least one recommendation")
	}
}

func TestSinglePatternWeightScenario(t *testing.T) {
	text := strings.Join(lexicon.Default().StockPhrases()[:24], ". ") + "."
	cfg := Config{Threshold: 0.6, Weights: Weights{FeatureAIPatterns: 1.0}}
	res := Analyze(text, cfg)
	if res.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", res.Confidence)
	}
	if res.Risk != RiskHigh || !res.IsLikelyAI {
		t.Fatalf("expected high-risk AI classification, got %+v", res)
	}
}

func TestRuleBumpCrossesThreshold(t *testing.T) {
	scores := Scores{
		FeatureAIPatterns:  {Score: 0.55, Explanation: "x"},
		FeatureTransitions: {Score: 0.95, Explanation: "x"},
		FeatureHedging:     {Score: 0.95, Explanation: "x"},
	}
	cfg := Config{Threshold: 0.6, Weights: Weights{FeatureAIPatterns: 1}, Rules: DefaultRules()}

	res := Aggregate(scores, cfg)
	if math.Abs(res.Confidence-0.65) > 1e-9 {
		t.Fatalf("expected 0.65, got %f", res.Confidence)
	}
	if res.Risk != RiskMedium || !res.IsLikelyAI {
		t.Fatalf("expected medium AI result, got %+v", res)
	}
	if !reflect.DeepEqual(res.RulesFired, []string{"formal_hedged_prose"}) {
		t.Fatalf("unexpected fired rules %v", res.RulesFired)
	}

	cfg.Rules = nil
	if res := Aggregate(scores, cfg); res.IsLikelyAI || res.Risk != RiskLow {
		t.Fatalf("without the rule expected low non-AI result, got %+v", res)
	}
}

func TestRuleBumpClampsAtOne(t *testing.T) {
	scores := fixedScores(0.95)
	cfg := Config{Threshold: 0.6, Weights: Weights{FeatureAIPatterns: 1}, Rules: DefaultRules()}
	res := Aggregate(scores, cfg)
	if res.Confidence != 1.0 || res.Risk != RiskHigh {
		t.Fatalf("expected clamped 1.0 high, got %+v", res)
	}
}

func TestRulesClampIncrementally(t *testing.T) {
	scores := fixedScores(0.95)
	up := Rule{Name: "up", Conditions: []Condition{{FeatureAIPatterns, OpGTE, 0.9}}, Delta: 0.5}
	down := Rule{Name: "down", Conditions: []Condition{{FeatureAIPatterns, OpGTE, 0.9}}, Delta: -0.3}
	cfg := Config{Weights: Weights{FeatureAIPatterns: 1}, Rules: []Rule{up, down}}
	res := Aggregate(scores, cfg)
	if math.Abs(res.Confidence-0.7) > 1e-9 {
		t.Fatalf("expected 1.0-0.3=0.7 after incremental clamp, got %f", res.Confidence)
	}
}

func TestRuleOnAbsentFeatureDoesNotFire(t *testing.T) {
	scores := Scores{FeatureAIPatterns: {Score: 0.5, Explanation: "x"}}
	cfg := Config{Weights: Weights{FeatureAIPatterns: 1}, Rules: DefaultRules()}
	res := Aggregate(scores, cfg)
	if res.Confidence != 0.5 || len(res.RulesFired) != 0 {
		t.Fatalf("rule on absent features must not fire, got %+v", res)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	first := Analyze(formalSample, cfg)
	for range 5 {
		if again := Analyze(formalSample, cfg); !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ:\n%+v\n%+v", first, again)
		}
	}
}

func TestRecommendationTiersAndHints(t *testing.T) {
	low := Recommendations(0.1, fixedScores(0.1))
	if len(low) != 1 || !strings.HasPrefix(low[0], "No immediate action") {
		t.Fatalf("unexpected low-tier recommendations %q", low)
	}

	scores := fixedScores(0.2)
	scores[FeatureHedging] = FeatureScore{Score: 0.9, Explanation: "x"}
	scores[FeatureBurstiness] = FeatureScore{Score: 0.7, Explanation: "x"}
	scores[FeatureAIPatterns] = FeatureScore{Score: 0.7, Explanation: "x"}
	scores[FeatureUniformity] = FeatureScore{Score: 0.65, Explanation: "x"}
	recs := Recommendations(0.8, scores)
	if len(recs) != 5 {
		t.Fatalf("expected 2 tier lines and 3 hints, got %q", recs)
	}
	want := []string{featureHints[FeatureHedging], featureHints[FeatureAIPatterns], featureHints[FeatureBurstiness]}
	if !reflect.DeepEqual(recs[2:], want) {
		t.Fatalf("unexpected hint order %q", recs[2:])
	}
}
