package hybrid

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc_detector/internal/aidetect"
)

const sample = `Furthermore, it should be noted that the system may potentially improve outcomes. Moreover, the approach can generally be applied.

FIG. 1 shows an embodiment of the system. FIG. 2 depicts another embodiment.`

type stubScorer struct {
	assessment Assessment
	err        error
	gotText    string
	block      bool
}

func (s *stubScorer) Score(ctx context.Context, text string) (Assessment, error) {
	s.gotText = text
	if s.block {
		<-ctx.Done()
		return Assessment{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, ctx.Err())
	}
	if s.err != nil {
		return Assessment{}, s.err
	}
	return s.assessment, nil
}

func testSettings() Settings {
	return Settings{Provider: "stub", TraditionalWeight: 0.4, AIWeight: 0.6, MaxInputChars: 6000, Timeout: time.Second}
}

func TestBlendWeightsAndRecommendations(t *testing.T) {
	heuristic := aidetect.Result{Confidence: 0.5, Risk: aidetect.RiskLow, Recommendations: []string{"keep"}}
	res := Blend(heuristic, Assessment{Likelihood: 0.9, Rationale: "uniform tone"}, 0.6, testSettings())

	assert.InDelta(t, 0.74, res.Confidence, 1e-9)
	assert.Equal(t, aidetect.RiskMedium, res.Risk)
	assert.True(t, res.IsLikelyAI)
	assert.Equal(t, ModeHybrid, res.Mode)
	assert.Equal(t, 0.5, res.HeuristicConfidence)
	require.NotNil(t, res.LLM)
	assert.Equal(t, "uniform tone", res.LLM.Rationale)
	assert.Equal(t, []string{
		"keep",
		"LLM indicates likely AI-generated text",
		"Recommend manual review, especially drawings section",
		reviewFlag,
	}, res.Recommendations)
}

func TestBlendLowLikelihood(t *testing.T) {
	heuristic := aidetect.Result{Confidence: 0.2, Recommendations: []string{"No strong AI signal from LLM"}}
	res := Blend(heuristic, Assessment{Likelihood: 0.1}, 0.6, testSettings())
	assert.InDelta(t, 0.14, res.Confidence, 1e-9)
	assert.False(t, res.IsLikelyAI)
	assert.Equal(t, aidetect.RiskMinimal, res.Risk)
	assert.Equal(t, []string{"No strong AI signal from LLM"}, res.Recommendations)
}

func TestAnalyzerHeuristicOnly(t *testing.T) {
	cfg := aidetect.DefaultConfig()
	res := NewAnalyzer(nil, testSettings(), nil).Analyze(context.Background(), aidetect.Input{DocumentID: "d", Text: sample}, cfg)
	want := aidetect.Analyze(sample, cfg)

	assert.Equal(t, ModeHeuristic, res.Mode)
	assert.Equal(t, want, res.Result)
	assert.Equal(t, "d", res.DocumentID)
	assert.Nil(t, res.LLM)
}

func TestAnalyzerFallsBackOnScorerError(t *testing.T) {
	cfg := aidetect.DefaultConfig()
	scorer := &stubScorer{err: fmt.Errorf("%w: connection refused", ErrScorerUnavailable)}
	res := NewAnalyzer(scorer, testSettings(), nil).Analyze(context.Background(), aidetect.Input{Text: sample}, cfg)

	assert.Equal(t, ModeFallback, res.Mode)
	assert.Equal(t, aidetect.Analyze(sample, cfg), res.Result)
	assert.Contains(t, res.FallbackReason, "unavailable")
}

func TestAnalyzerFallsBackOnTimeout(t *testing.T) {
	settings := testSettings()
	settings.Timeout = 20 * time.Millisecond
	res := NewAnalyzer(&stubScorer{block: true}, settings, nil).Analyze(context.Background(), aidetect.Input{Text: sample}, aidetect.DefaultConfig())

	assert.Equal(t, ModeFallback, res.Mode)
	assert.Contains(t, res.FallbackReason, "timeout")
}

func TestAnalyzerBlendsAndTruncates(t *testing.T) {
	settings := testSettings()
	settings.MaxInputChars = 10
	scorer := &stubScorer{assessment: Assessment{Likelihood: 1}}
	cfg := aidetect.DefaultConfig()
	res := NewAnalyzer(scorer, settings, nil).Analyze(context.Background(), aidetect.Input{DocumentID: "x", Text: sample}, cfg)

	assert.Equal(t, sample[:10], scorer.gotText)
	assert.Equal(t, ModeHybrid, res.Mode)
	assert.Equal(t, "x", res.DocumentID)
	heuristic := aidetect.Analyze(sample, cfg).Confidence
	assert.InDelta(t, 0.4*heuristic+0.6, res.Confidence, 1e-9)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "héllo", Truncate("héllo", 0))
	assert.Equal(t, "héllo", Truncate("héllo", 10))
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "timeout", fallbackReason(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, "parse", fallbackReason(fmt.Errorf("%w: %w", ErrScorerUnavailable, ErrUnparseable)))
	assert.Equal(t, "unavailable", fallbackReason(errors.New("boom")))
}

func TestNewScorer(t *testing.T) {
	s, err := NewScorer(Options{Provider: ProviderOllama, MaxRetries: 1}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OllamaScorer{}, s)

	_, err = NewScorer(Options{Provider: "bard"}, nil)
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewScorer(Options{Provider: ProviderOpenAI}, nil)
	assert.Error(t, err)
}
