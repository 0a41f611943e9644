package aidetect

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"doc_detector/internal/textstats"
)

type Input struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type Logger interface {
	Log(level, stage, message, detail string)
}

// Analyze runs the default analyzer panel over text and aggregates the
// scores under cfg. It performs no I/O and always returns a Result.
func Analyze(text string, cfg Config) Result {
	return Aggregate(Score(text, DefaultPanel()), cfg)
}

// AnalyzerPanicError reports an analyzer that panicked while scoring.
type AnalyzerPanicError struct {
	Feature FeatureID
	Value   any
}

func (e *AnalyzerPanicError) Error() string {
	return fmt.Sprintf("analyzer %s panicked: %v", e.Feature, e.Value)
}

// Score computes shared statistics once and runs every analyzer of panel
// concurrently against them. A panicking analyzer yields a zero score.
func Score(text string, panel []Analyzer) Scores {
	scores, _ := ScorePanel(text, panel)
	return scores
}

// ScorePanel is Score that also reports the first analyzer failure. The
// returned scores are complete either way.
func ScorePanel(text string, panel []Analyzer) (Scores, error) {
	st := textstats.Compute(text)
	out := make([]FeatureScore, len(panel))

	var g errgroup.Group
	for i, a := range panel {
		g.Go(func() error {
			fs, err := runAnalyzer(a, text, &st)
			out[i] = fs
			return err
		})
	}
	err := g.Wait()

	scores := make(Scores, len(panel))
	for i, a := range panel {
		scores[a.Feature] = out[i]
	}
	return scores, err
}

func runAnalyzer(a Analyzer, text string, st *textstats.Stats) (fs FeatureScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs = FeatureScore{0, fmt.Sprintf("Analyzer failed: %v", r)}
			err = &AnalyzerPanicError{Feature: a.Feature, Value: r}
		}
	}()
	fs = a.Fn(text, st)
	fs.Score = clamp01(fs.Score)
	if fs.Explanation == "" {
		fs.Explanation = fmt.Sprintf("%s score %.2f.", a.Feature, fs.Score)
	}
	return fs, nil
}

// Detector binds a configuration and an optional stage logger.
type Detector struct {
	cfg    Config
	logger Logger
}

func NewDetector(cfg Config, logger Logger) *Detector {
	return &Detector{cfg: cfg.Clone(), logger: logger}
}

func (d *Detector) Config() Config {
	return d.cfg.Clone()
}

func (d *Detector) Run(in Input) Result {
	start := time.Now()
	if d.logger != nil {
		d.logger.Log("ANALYSIS", "AI", "AI detection run started",
			fmt.Sprintf("document_id=%s chars=%d preset=%s", defaultIfEmpty(in.DocumentID, "-"), len(in.Text), defaultIfEmpty(d.cfg.Preset, "custom")))
	}
	scores, err := ScorePanel(in.Text, DefaultPanel())
	if err != nil && d.logger != nil {
		d.logger.Log("WARN", "AI", "analyzer failed", fmt.Sprintf("document_id=%s err=%v", defaultIfEmpty(in.DocumentID, "-"), err))
	}
	res := Aggregate(scores, d.cfg)
	if d.logger != nil {
		d.logger.Log("ANALYSIS", "AI", "AI detection run completed",
			fmt.Sprintf("document_id=%s confidence=%.3f risk=%s rules=%v elapsed=%s", defaultIfEmpty(in.DocumentID, "-"), res.Confidence, res.Risk, res.RulesFired, time.Since(start).Round(time.Millisecond)))
	}
	return res
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
