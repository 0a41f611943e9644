// Package lexicon holds the stock phrase and word lists the heuristic
// analyzers match against.
package lexicon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed patterns.json
var patternsJSON []byte

// Lexicon is immutable after Load.
type Lexicon struct {
	AIPhrases         []string `json:"ai_phrases"`
	Fillers           []string `json:"fillers"`
	Transitions       []string `json:"transitions"`
	Hedges            []string `json:"hedges"`
	DrawingConnectors []string `json:"drawing_connectors"`

	phrasePatterns  []*regexp.Regexp
	connectors      []*regexp.Regexp
	hedgeWords      map[string]struct{}
	hedgePhrases    []*regexp.Regexp
	transitionWords map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the embedded lexicon. It panics if the embedded file is
// malformed, which only a broken build can cause.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := Load(patternsJSON)
		if err != nil {
			panic(err)
		}
		defaultLex = lex
	})
	return defaultLex
}

// Load parses a lexicon document and precompiles its matchers.
func Load(raw []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := json.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(lex.AIPhrases)+len(lex.Fillers) == 0 {
		return nil, fmt.Errorf("parse lexicon: no phrase patterns")
	}

	for _, p := range lex.StockPhrases() {
		lex.phrasePatterns = append(lex.phrasePatterns, phraseRegexp(p))
	}
	for _, c := range lex.DrawingConnectors {
		lex.connectors = append(lex.connectors, phraseRegexp(c))
	}
	lex.transitionWords = wordSet(lex.Transitions)
	lex.hedgeWords = make(map[string]struct{})
	for _, h := range lex.Hedges {
		h = strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(h, " ") {
			lex.hedgePhrases = append(lex.hedgePhrases, phraseRegexp(h))
			continue
		}
		lex.hedgeWords[h] = struct{}{}
	}
	return &lex, nil
}

// StockPhrases is AIPhrases followed by Fillers.
func (l *Lexicon) StockPhrases() []string {
	out := make([]string, 0, len(l.AIPhrases)+len(l.Fillers))
	out = append(out, l.AIPhrases...)
	return append(out, l.Fillers...)
}

// MatchedPhrases returns the stock phrases occurring at least once in text,
// in lexicon order.
func (l *Lexicon) MatchedPhrases(text string) []string {
	all := l.StockPhrases()
	var out []string
	for i, re := range l.phrasePatterns {
		if re.MatchString(text) {
			out = append(out, all[i])
		}
	}
	return out
}

// PhraseCount is the number of stock phrase patterns.
func (l *Lexicon) PhraseCount() int {
	return len(l.phrasePatterns)
}

// IsTransition reports whether a lowercase token is a transition marker.
func (l *Lexicon) IsTransition(tok string) bool {
	_, ok := l.transitionWords[tok]
	return ok
}

// CountHedges counts single-word hedges among tokens plus every occurrence of
// a multi-word hedge in text.
func (l *Lexicon) CountHedges(tokens []string, text string) int {
	n := 0
	for _, tok := range tokens {
		if _, ok := l.hedgeWords[tok]; ok {
			n++
		}
	}
	for _, re := range l.hedgePhrases {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// ConnectorsIn returns the drawing connectors present in a sentence.
func (l *Lexicon) ConnectorsIn(sentence string) []string {
	var out []string
	for i, re := range l.connectors {
		if re.MatchString(sentence) {
			out = append(out, l.DrawingConnectors[i])
		}
	}
	return out
}

func phraseRegexp(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(phrase)) + `\b`)
}

func wordSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return out
}
