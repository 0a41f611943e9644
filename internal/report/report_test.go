package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
)

const patentText = `Furthermore, it is important to note that the present invention provides a robust and scalable solution. Moreover, the system may potentially be configured in various embodiments.

FIG. 1 illustrates an overview of the system. FIG. 2 illustrates a detailed view of the system. FIG. 3 illustrates an alternative view of the system.`

func fixedResult() aidetect.Result {
	return aidetect.Result{
		IsLikelyAI: true,
		Confidence: 0.6789,
		Risk:       aidetect.RiskMedium,
		FeatureScores: aidetect.Scores{
			aidetect.FeatureTransitions: {Score: 0.5, Explanation: "10.0 transitions per 1000 words."},
			aidetect.FeatureAIPatterns:  {Score: 0.25, Explanation: "Matched 3/30 AI-typical phrases."},
		},
		Recommendations: []string{"Review flagged sections."},
		RulesFired:      []string{"formal_hedged_prose"},
	}
}

func TestConsoleLayout(t *testing.T) {
	out := Console(fixedResult())
	want := strings.Join([]string{
		"AI Document Detection Report",
		"--------------------------------",
		"Likely AI-generated: true",
		"Confidence score: 0.68",
		"Risk level: medium",
		"",
		"Feature Scores:",
		"  - ai_patterns: 0.25",
		"  - transitions: 0.50",
		"",
		"Details:",
		"  - ai_patterns: Matched 3/30 AI-typical phrases.",
		"  - transitions: 10.0 transitions per 1000 words.",
		"",
		"Rules fired:",
		"  - formal_hedged_prose",
		"",
		"Recommendations:",
		"  - Review flagged sections.",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "AI-likely=true, conf=0.68, risk=medium", Summary(fixedResult()))
}

func TestHybridRendering(t *testing.T) {
	res := hybrid.Result{
		Result:              fixedResult(),
		Mode:                hybrid.ModeHybrid,
		HeuristicConfidence: 0.41,
		LLM:                 &hybrid.Assessment{Likelihood: 0.83, Rationale: "formulaic", RedFlags: []string{"a", "b"}, Model: "llama3.2"},
	}
	out := Hybrid(res)
	assert.True(t, strings.HasPrefix(out, Console(res.Result)))
	assert.Contains(t, out, "  - mode: hybrid")
	assert.Contains(t, out, "  - heuristic confidence: 0.41")
	assert.Contains(t, out, "  - llm likelihood: 0.83 (llama3.2)")
	assert.Contains(t, out, "  - llm red flags: a; b")
	assert.NotContains(t, out, "fallback")
}

func TestJSONKeepsNonASCII(t *testing.T) {
	res := fixedResult()
	res.Recommendations = []string{"Überprüfen <Abschnitt>"}
	data, err := JSON(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Überprüfen <Abschnitt>")
	assert.Contains(t, string(data), "\n  \"confidence_score\": 0.6789")
}

func TestAnalyzedResultsMatchSchema(t *testing.T) {
	for _, preset := range aidetect.PresetNames() {
		cfg, err := aidetect.Preset(preset)
		require.NoError(t, err)
		for _, text := range []string{"", patentText} {
			data, err := JSON(aidetect.Analyze(text, cfg))
			require.NoError(t, err)
			assert.NoError(t, Validate(data), "preset %s", preset)
		}
	}
}

func TestHybridResultMatchesSchema(t *testing.T) {
	res := hybrid.NewAnalyzer(nil, hybrid.Settings{}, nil).Analyze(t.Context(), aidetect.Input{Text: patentText}, aidetect.DefaultConfig())
	data, err := JSON(res)
	require.NoError(t, err)
	require.NoError(t, Validate(data))

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Contains(t, flat, "confidence_score")
	assert.Equal(t, "heuristic", flat["mode"])
}

func TestValidateRejectsBadRecords(t *testing.T) {
	cases := map[string]string{
		"missing fields":  `{"confidence_score": 0.5}`,
		"score too large": `{"is_likely_ai_generated": true, "confidence_score": 1.5, "risk_level": "high", "feature_scores": {}, "recommendations": []}`,
		"unknown feature": `{"is_likely_ai_generated": false, "confidence_score": 0.1, "risk_level": "minimal", "feature_scores": {"vibes": {"score": 0.1, "explanation": "x"}}, "recommendations": []}`,
		"bad risk":        `{"is_likely_ai_generated": false, "confidence_score": 0.1, "risk_level": "severe", "feature_scores": {}, "recommendations": []}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(doc)))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, fixedResult()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NoError(t, Validate(data))
}

func TestConsoleUsesCanonicalFeatureOrder(t *testing.T) {
	res := aidetect.Analyze("Furthermore, it may be noted.\n\nFIG. 1 shows the frame 10.", aidetect.DefaultConfig())
	out := Console(res)
	last := -1
	for _, f := range aidetect.AllFeatures {
		idx := strings.Index(out, "  - "+string(f)+": ")
		require.GreaterOrEqual(t, idx, 0, "missing %s", f)
		assert.Greater(t, idx, last, "%s out of order", f)
		last = idx
	}
}
