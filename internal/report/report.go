// Package report renders detection results for people and machines.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
)

//go:embed result.schema.json
var schemaJSON []byte

const schemaURL = "https://doc-detector.local/schema/result.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Schema returns the JSON schema every rendered result conforms to.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// Console renders the multi-line report printed by the CLI.
func Console(r aidetect.Result) string {
	var b strings.Builder
	b.WriteString("AI Document Detection Report\n")
	b.WriteString(strings.Repeat("-", 32) + "\n")
	fmt.Fprintf(&b, "Likely AI-generated: %t\n", r.IsLikelyAI)
	fmt.Fprintf(&b, "Confidence score: %.2f\n", r.Confidence)
	fmt.Fprintf(&b, "Risk level: %s\n", r.Risk)

	names := sortedFeatures(r.FeatureScores)
	b.WriteString("\nFeature Scores:\n")
	for _, f := range names {
		fmt.Fprintf(&b, "  - %s: %.2f\n", f, r.FeatureScores[f].Score)
	}
	b.WriteString("\nDetails:\n")
	for _, f := range names {
		fmt.Fprintf(&b, "  - %s: %s\n", f, r.FeatureScores[f].Explanation)
	}
	if len(r.RulesFired) > 0 {
		b.WriteString("\nRules fired:\n")
		for _, name := range r.RulesFired {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	b.WriteString("\nRecommendations:\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Hybrid renders the console report followed by the blend details.
func Hybrid(r hybrid.Result) string {
	var b strings.Builder
	b.WriteString(Console(r.Result))
	b.WriteString("\n\nHybrid Analysis:\n")
	fmt.Fprintf(&b, "  - mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "  - heuristic confidence: %.2f\n", r.HeuristicConfidence)
	if r.LLM != nil {
		model := r.LLM.Model
		if model == "" {
			model = "unknown model"
		}
		fmt.Fprintf(&b, "  - llm likelihood: %.2f (%s)\n", r.LLM.Likelihood, model)
		if r.LLM.Rationale != "" {
			fmt.Fprintf(&b, "  - llm rationale: %s\n", r.LLM.Rationale)
		}
		if len(r.LLM.RedFlags) > 0 {
			fmt.Fprintf(&b, "  - llm red flags: %s\n", strings.Join(r.LLM.RedFlags, "; "))
		}
	}
	if r.FallbackReason != "" {
		fmt.Fprintf(&b, "  - fallback: %s\n", r.FallbackReason)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func Summary(r aidetect.Result) string {
	return fmt.Sprintf("AI-likely=%t, conf=%.2f, risk=%s", r.IsLikelyAI, r.Confidence, r.Risk)
}

// JSON encodes v indented, leaving non-ASCII and HTML characters as is.
func JSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteJSON writes the JSON rendering of v to path, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	data, err := JSON(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Validate checks an encoded result against the embedded schema.
func Validate(data []byte) error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	if schemaErr != nil {
		return schemaErr
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}

func sortedFeatures(scores aidetect.Scores) []aidetect.FeatureID {
	names := make([]aidetect.FeatureID, 0, len(scores))
	for _, f := range aidetect.AllFeatures {
		if _, ok := scores[f]; ok {
			names = append(names, f)
		}
	}
	var extra []aidetect.FeatureID
	for f := range scores {
		if !f.Valid() {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(names, extra...)
}
