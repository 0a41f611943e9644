package aidetect

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"doc_detector/internal/textstats"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Log(level, stage, message, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+"|"+stage+"|"+message+"|"+detail)
}

func TestDetectorLogsAndMatchesAnalyze(t *testing.T) {
	logger := &recordingLogger{}
	d := NewDetector(DefaultConfig(), logger)
	got := d.Run(Input{DocumentID: "doc-1", Text: formalSample})
	want := Analyze(formalSample, DefaultConfig())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("detector result differs from Analyze")
	}
	if len(logger.lines) != 2 {
		t.Fatalf("expected start and completion logs, got %d", len(logger.lines))
	}
	if !strings.Contains(logger.lines[0], "document_id=doc-1") || !strings.Contains(logger.lines[1], "confidence=") {
		t.Fatalf("unexpected log lines %q", logger.lines)
	}
}

func TestDetectorConfigIsIsolated(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg, nil)
	cfg.Weights[FeatureAIPatterns] = 42
	if d.Config().Weights[FeatureAIPatterns] == 42 {
		t.Fatal("detector must not share caller's weight map")
	}
}

func TestScoreRecoversFromPanickingAnalyzer(t *testing.T) {
	panel := []Analyzer{
		{FeatureAIPatterns, func(string, *textstats.Stats) FeatureScore { panic("boom") }},
		{FeatureHedging, func(string, *textstats.Stats) FeatureScore { return FeatureScore{Score: 3} }},
	}
	scores := Score("anything", panel)
	if scores[FeatureAIPatterns].Score != 0 || !strings.Contains(scores[FeatureAIPatterns].Explanation, "boom") {
		t.Fatalf("expected recovered zero score, got %+v", scores[FeatureAIPatterns])
	}
	if scores[FeatureHedging].Score != 1 || scores[FeatureHedging].Explanation == "" {
		t.Fatalf("expected clamped score with fallback explanation, got %+v", scores[FeatureHedging])
	}
}

func TestScorePanelReportsPanickingAnalyzer(t *testing.T) {
	panel := []Analyzer{
		{FeatureHedging, func(string, *textstats.Stats) FeatureScore { return FeatureScore{Score: 0.4, Explanation: "ok"} }},
		{FeatureBurstiness, func(string, *textstats.Stats) FeatureScore { panic("bad stats") }},
	}
	scores, err := ScorePanel("anything", panel)
	var pe *AnalyzerPanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected AnalyzerPanicError, got %v", err)
	}
	if pe.Feature != FeatureBurstiness || !strings.Contains(err.Error(), "bad stats") {
		t.Fatalf("unexpected panic error %v", err)
	}
	if len(scores) != 2 || scores[FeatureHedging].Score != 0.4 || scores[FeatureBurstiness].Score != 0 {
		t.Fatalf("expected complete scores despite failure, got %+v", scores)
	}

	if _, err := ScorePanel(formalSample, DefaultPanel()); err != nil {
		t.Fatalf("expected no failure from default panel, got %v", err)
	}
}
