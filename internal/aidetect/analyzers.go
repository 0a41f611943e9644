package aidetect

import (
	"fmt"
	"math"
	"strings"

	"doc_detector/internal/lexicon"
	"doc_detector/internal/textstats"
)

const insufficientSignal = "No text provided; insufficient signal."

// minRepetitionTokens is the smallest text whose top-word coverage means anything.
const minRepetitionTokens = 5

// AnalyzerFunc scores one feature from the raw text and its shared stats.
// Implementations must be pure and return a score within [0,1].
type AnalyzerFunc func(text string, st *textstats.Stats) FeatureScore

type Analyzer struct {
	Feature FeatureID
	Fn      AnalyzerFunc
}

// DefaultPanel is the analyzer set, one per feature, in canonical order.
func DefaultPanel() []Analyzer {
	return []Analyzer{
		{FeatureAIPatterns, analyzeAIPatterns},
		{FeatureTransitions, analyzeTransitions},
		{FeatureHedging, analyzeHedging},
		{FeatureRepetition, analyzeRepetition},
		{FeatureVocabDiversity, analyzeVocabDiversity},
		{FeatureSentenceStructure, analyzeSentenceStructure},
		{FeatureUniformity, analyzeUniformity},
		{FeatureBurstiness, analyzeBurstiness},
		{FeatureDrawingDescriptions, analyzeDrawingDescriptions},
	}
}

func analyzeAIPatterns(text string, st *textstats.Stats) FeatureScore {
	if st.TokenCount == 0 {
		return FeatureScore{0, insufficientSignal}
	}
	lex := lexicon.Default()
	matched := lex.MatchedPhrases(text)
	score := float64(len(matched)) / float64(lex.PhraseCount())
	expl := fmt.Sprintf("Matched %d/%d AI-typical phrases.", len(matched), lex.PhraseCount())
	if len(matched) > 0 {
		expl += fmt.Sprintf(" Examples: %s.", strings.Join(matched[:minInt(3, len(matched))], ", "))
	}
	return FeatureScore{clamp01(score), expl}
}

func analyzeTransitions(_ string, st *textstats.Stats) FeatureScore {
	if st.TokenCount == 0 {
		return FeatureScore{0, insufficientSignal}
	}
	lex := lexicon.Default()
	count := 0
	for _, tok := range st.Tokens {
		if lex.IsTransition(tok) {
			count++
		}
	}
	density := textstats.DensityPer1000(count, st.TokenCount)
	return FeatureScore{
		Score:       clamp01(density / 20.0),
		Explanation: fmt.Sprintf("Transition density %.1f/1000 words (count=%d).", density, count),
	}
}

func analyzeHedging(text string, st *textstats.Stats) FeatureScore {
	if st.TokenCount == 0 {
		return FeatureScore{0, insufficientSignal}
	}
	count := lexicon.Default().CountHedges(st.Tokens, text)
	density := textstats.DensityPer1000(count, st.TokenCount)
	return FeatureScore{
		Score:       clamp01(density / 15.0),
		Explanation: fmt.Sprintf("Hedging density %.1f/1000 words (count=%d).", density, count),
	}
}

func analyzeRepetition(_ string, st *textstats.Stats) FeatureScore {
	if st.TokenCount == 0 {
		return FeatureScore{0, insufficientSignal}
	}
	if st.TokenCount < minRepetitionTokens {
		return FeatureScore{0, fmt.Sprintf("Only %d token(s); insufficient signal.", st.TokenCount)}
	}
	top := textstats.TopTokens(st.Tokens, 5)
	covered := 0
	words := make([]string, 0, len(top))
	for _, c := range top {
		covered += c.N
		words = append(words, c.Token)
	}
	coverage := float64(covered) / float64(st.TokenCount)
	return FeatureScore{
		Score:       clamp01(coverage * 2.0),
		Explanation: fmt.Sprintf("Top-%d words cover %d/%d tokens (%s).", len(top), covered, st.TokenCount, strings.Join(words, ", ")),
	}
}

func analyzeVocabDiversity(_ string, st *textstats.Stats) FeatureScore {
	if st.TokenCount == 0 {
		return FeatureScore{0, insufficientSignal}
	}
	return FeatureScore{
		Score: clamp01(1.0 - st.MovingTTR),
		Explanation: fmt.Sprintf("MATTR=%.3f over %d-token windows, lexical density %.2f, unique tokens %d.",
			st.MovingTTR, textstats.MATTRWindow, st.LexicalDensity, st.UniqueTokens),
	}
}

func analyzeSentenceStructure(_ string, st *textstats.Stats) FeatureScore {
	if len(st.SentenceLengths) < 2 {
		return FeatureScore{0, "Fewer than two sentences; insufficient signal."}
	}
	return FeatureScore{
		Score:       lowVariationScore(st.SentenceLengthCV, 0.35),
		Explanation: fmt.Sprintf("Sentence length CV=%.2f (lower suggests uniform structure).", st.SentenceLengthCV),
	}
}

func analyzeUniformity(_ string, st *textstats.Stats) FeatureScore {
	if len(st.SentenceStarters) < 2 {
		return FeatureScore{0, "Fewer than two sentences; insufficient signal."}
	}
	top := textstats.TopTokens(st.SentenceStarters, 1)
	ratio := float64(top[0].N) / float64(len(st.SentenceStarters))
	return FeatureScore{
		Score:       clamp01(ratio),
		Explanation: fmt.Sprintf("Most common sentence starter %q in %.0f%% of sentences.", top[0].Token, ratio*100),
	}
}

func analyzeBurstiness(_ string, st *textstats.Stats) FeatureScore {
	if len(st.ParagraphLengths) < 2 {
		return FeatureScore{0, "Fewer than two paragraphs; insufficient signal."}
	}
	return FeatureScore{
		Score:       lowVariationScore(st.ParagraphLengthCV, 0.30),
		Explanation: fmt.Sprintf("Paragraph length CV=%.2f (lower suggests uniform burstiness).", st.ParagraphLengthCV),
	}
}

// lowVariationScore maps a coefficient of variation onto [0,1], reaching 1
// as cv approaches 0 and 0 at or above ceiling. A zero cv carries no signal.
func lowVariationScore(cv, ceiling float64) float64 {
	if cv <= 0 || math.IsNaN(cv) {
		return 0
	}
	return clamp01((ceiling - math.Min(cv, ceiling)) / ceiling)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
