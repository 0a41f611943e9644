// Package hybrid blends the heuristic engine with an LLM assessment.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/logging"
	"doc_detector/internal/metrics"
)

var (
	ErrScorerUnavailable = errors.New("hybrid scorer unavailable")
	ErrUnparseable       = errors.New("unparseable assessment")
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeHybrid    Mode = "hybrid"
	ModeFallback  Mode = "fallback"
)

// Assessment is an LLM's independent judgement of one document.
type Assessment struct {
	Likelihood      float64  `json:"ai_likelihood"`
	Rationale       string   `json:"rationale,omitempty"`
	RedFlags        []string `json:"red_flags,omitempty"`
	ConfidenceNotes string   `json:"confidence_notes,omitempty"`
	Model           string   `json:"model,omitempty"`
}

// Scorer returns an AI-likelihood for text or an error wrapping
// ErrScorerUnavailable.
type Scorer interface {
	Score(ctx context.Context, text string) (Assessment, error)
}

type Settings struct {
	Provider          string
	TraditionalWeight float64
	AIWeight          float64
	MaxInputChars     int
	Timeout           time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Provider:          getenv("AIDD_HYBRID_PROVIDER", ProviderOllama),
		TraditionalWeight: getenvFloat("TRADITIONAL_WEIGHT", 0.4),
		AIWeight:          getenvFloat("AI_WEIGHT", 0.6),
		MaxInputChars:     6000,
		Timeout:           time.Duration(getenvInt("OLLAMA_TIMEOUT", 120)) * time.Second,
	}
}

type Result struct {
	aidetect.Result
	DocumentID          string      `json:"document_id,omitempty"`
	Mode                Mode        `json:"mode"`
	HeuristicConfidence float64     `json:"heuristic_confidence"`
	LLM                 *Assessment `json:"llm_assessment,omitempty"`
	FallbackReason      string      `json:"fallback_reason,omitempty"`
}

const reviewFlag = "Hybrid system flags this document for review"

// Blend combines a heuristic result with an LLM assessment. Bands and the
// threshold are the heuristic engine's.
func Blend(heuristic aidetect.Result, a Assessment, threshold float64, s Settings) Result {
	combined := clamp01(s.TraditionalWeight*heuristic.Confidence + s.AIWeight*clamp01(a.Likelihood))

	blended := heuristic
	blended.Confidence = combined
	blended.Risk = aidetect.RiskFor(combined)
	blended.IsLikelyAI = combined >= threshold

	recs := append([]string(nil), heuristic.Recommendations...)
	if a.Likelihood >= 0.6 {
		recs = append(recs, "LLM indicates likely AI-generated text", "Recommend manual review, especially drawings section")
	} else {
		recs = append(recs, "No strong AI signal from LLM")
	}
	if combined >= 0.6 {
		recs = append(recs, reviewFlag)
	}
	blended.Recommendations = dedupe(recs)

	assessment := a
	return Result{
		Result:              blended,
		Mode:                ModeHybrid,
		HeuristicConfidence: heuristic.Confidence,
		LLM:                 &assessment,
	}
}

type Analyzer struct {
	scorer   Scorer
	settings Settings
	logger   *slog.Logger
}

// NewAnalyzer returns an analyzer; a nil scorer means heuristics only.
func NewAnalyzer(scorer Scorer, settings Settings, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Analyzer{scorer: scorer, settings: settings, logger: logger}
}

func (a *Analyzer) Enabled() bool {
	return a.scorer != nil
}

// Analyze never fails: any scorer error degrades to the heuristic result.
func (a *Analyzer) Analyze(ctx context.Context, in aidetect.Input, cfg aidetect.Config) Result {
	start := time.Now()
	heuristic := aidetect.NewDetector(cfg, logging.StageLogger{L: a.logger}).Run(in)
	res := Result{
		Result:              heuristic,
		DocumentID:          in.DocumentID,
		Mode:                ModeHeuristic,
		HeuristicConfidence: heuristic.Confidence,
	}

	if a.scorer != nil {
		scoreCtx := ctx
		if a.settings.Timeout > 0 {
			var cancel context.CancelFunc
			scoreCtx, cancel = context.WithTimeout(ctx, a.settings.Timeout)
			defer cancel()
		}
		assessment, err := a.scorer.Score(scoreCtx, Truncate(in.Text, a.settings.MaxInputChars))
		if err != nil {
			reason := fallbackReason(err)
			a.logger.Warn("hybrid scorer failed, using heuristic result",
				"provider", a.settings.Provider, "reason", reason, "document_id", in.DocumentID, "error", err)
			metrics.HybridFallback(a.settings.Provider, reason)
			res.Mode = ModeFallback
			res.FallbackReason = fmt.Sprintf("%s: %v", reason, err)
		} else {
			res = Blend(heuristic, assessment, cfg.Threshold, a.settings)
			res.DocumentID = in.DocumentID
		}
	}

	metrics.ObserveAnalysis(string(res.Mode), res.IsLikelyAI, string(res.Risk), res.Confidence, time.Since(start))
	return res
}

// Truncate keeps at most maxChars runes. A non-positive limit keeps all.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUnparseable):
		return "parse"
	default:
		return "unavailable"
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
