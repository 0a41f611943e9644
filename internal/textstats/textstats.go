// Package textstats computes the shared lexical statistics every analyzer
// reads. Stats are computed once per document and never mutated afterwards.
package textstats

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"doc_detector/internal/chunk"
)

// MATTRWindow is the moving type-token ratio window in tokens.
const MATTRWindow = 100

var (
	nonWordChars   = regexp.MustCompile(`[^\p{L}\p{N}_'\-]+`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	dashes         = strings.NewReplacer("—", "-", "–", "-", "’", "'")
)

// Stats is read-only once returned by Compute.
type Stats struct {
	Tokens           []string
	Sentences        []string
	SentenceLengths  []float64
	SentenceStarters []string
	Paragraphs       []string
	ParagraphLengths []float64

	TokenCount        int
	UniqueTokens      int
	TypeTokenRatio    float64
	MovingTTR         float64
	LexicalDensity    float64
	SentenceLengthCV  float64
	ParagraphLengthCV float64
}

// Compute tokenizes text and derives every shared statistic.
func Compute(text string) Stats {
	tokens := Words(text)
	st := Stats{
		Tokens:     tokens,
		TokenCount: len(tokens),
		Sentences:  Sentences(text),
		Paragraphs: Paragraphs(text),
	}

	seen := make(map[string]struct{}, len(tokens))
	content := 0
	for _, tok := range tokens {
		seen[tok] = struct{}{}
		if !IsFunctionWord(tok) {
			content++
		}
	}
	st.UniqueTokens = len(seen)
	st.TypeTokenRatio = TypeTokenRatio(tokens)
	st.MovingTTR = MovingTTR(tokens, MATTRWindow)
	if len(tokens) > 0 {
		st.LexicalDensity = float64(content) / float64(len(tokens))
	}

	for _, s := range st.Sentences {
		words := Words(s)
		st.SentenceLengths = append(st.SentenceLengths, float64(len(words)))
		if len(words) > 0 {
			st.SentenceStarters = append(st.SentenceStarters, words[0])
		}
	}
	for _, p := range st.Paragraphs {
		st.ParagraphLengths = append(st.ParagraphLengths, float64(len(Words(p))))
	}
	st.SentenceLengthCV = CoefficientOfVariation(st.SentenceLengths)
	st.ParagraphLengthCV = CoefficientOfVariation(st.ParagraphLengths)
	return st
}

// Words lowercases text and splits it into word tokens. Letters, digits,
// underscores, hyphens and apostrophes are word characters; edge hyphens and
// apostrophes are trimmed.
func Words(text string) []string {
	cleaned := nonWordChars.ReplaceAllString(dashes.Replace(text), " ")
	fields := strings.Fields(strings.ToLower(cleaned))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Paragraphs splits on blank lines and drops empty blocks.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits text after '.', '?', '!' or ';' when followed by
// whitespace or the end of input. A period closing a known abbreviation or a
// single-letter initial does not end a sentence.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && !unicode.IsSpace(runes[j+1]) {
			i = j
			continue
		}
		if j == i && runes[i] == '.' && endsWithAbbreviation(runes[start:i]) {
			continue
		}
		emit(j + 1)
		i = j
	}
	emit(len(runes))
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!' || r == ';'
}

func endsWithAbbreviation(prefix []rune) bool {
	k := len(prefix)
	for k > 0 && !unicode.IsSpace(prefix[k-1]) {
		k--
	}
	word := strings.ToLower(strings.TrimLeft(string(prefix[k:]), "(\"'["))
	if word == "" {
		return false
	}
	if r := []rune(word); len(r) == 1 && unicode.IsLetter(r[0]) {
		return true
	}
	_, ok := abbreviations[word]
	return ok
}

// TypeTokenRatio is unique tokens over total tokens, 0 for no tokens.
func TypeTokenRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}

// MovingTTR averages the type-token ratio over full windows advancing by
// half a window. Inputs no longer than one window fall back to plain TTR.
func MovingTTR(tokens []string, window int) float64 {
	if len(tokens) == 0 || window <= 0 {
		return 0
	}
	if len(tokens) <= window {
		return TypeTokenRatio(tokens)
	}
	spans := chunk.Spans(len(tokens), window, window-window/2, true)
	sum := 0.0
	for _, s := range spans {
		sum += TypeTokenRatio(tokens[s.StartToken:s.EndToken])
	}
	return sum / float64(len(spans))
}

// CoefficientOfVariation is the sample standard deviation over the mean.
// Fewer than two values, or a non-positive mean, yield 0.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean <= 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance) / mean
}

// DensityPer1000 scales a count to occurrences per thousand tokens.
func DensityPer1000(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 1000
}

// Count is a token and its frequency.
type Count struct {
	Token string
	N     int
}

// TopTokens returns the n most frequent tokens, ties broken alphabetically.
func TopTokens(tokens []string, n int) []Count {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	out := make([]Count, 0, len(freq))
	for tok, c := range freq {
		out = append(out, Count{Token: tok, N: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Token < out[j].Token
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
