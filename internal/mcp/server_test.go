package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/report"
)

const patentText = `Furthermore, it is important to note that the present invention provides a robust solution. Moreover, the assembly may potentially be configured in various embodiments.

FIG. 1 illustrates an overview of the assembly. FIG. 2 illustrates a detailed view of the assembly.`

type stubScorer struct{ likelihood float64 }

func (s stubScorer) Score(context.Context, string) (hybrid.Assessment, error) {
	return hybrid.Assessment{Likelihood: s.likelihood, Model: "stub"}, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
		if tc, ok := content.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDetectTextReport(t *testing.T) {
	s := NewServer(Options{})
	result, err := s.handleDetectText(context.Background(), callRequest(map[string]any{"text": patentText}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	want := report.Console(aidetect.Analyze(patentText, aidetect.DefaultConfig()))
	assert.Equal(t, want, extractTextFromResult(result))
}

func TestDetectTextJSONWithOverrides(t *testing.T) {
	s := NewServer(Options{})
	result, err := s.handleDetectText(context.Background(), callRequest(map[string]any{
		"text":      patentText,
		"preset":    "conservative",
		"threshold": 0.0,
		"format":    "json",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := extractTextFromResult(result)
	require.NoError(t, report.Validate([]byte(body)))
	var res hybrid.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	cfg, err := aidetect.Preset("conservative")
	require.NoError(t, err)
	assert.Equal(t, aidetect.Analyze(patentText, cfg).Confidence, res.Confidence)
	assert.True(t, res.IsLikelyAI)
}

func TestDetectTextErrors(t *testing.T) {
	s := NewServer(Options{})
	cases := map[string]map[string]any{
		"missing text": {},
		"bad preset":   {"text": "x", "preset": "reckless"},
		"threshold":    {"text": "x", "threshold": 2.0},
		"no hybrid":    {"text": "x", "hybrid": true},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := s.handleDetectText(context.Background(), callRequest(args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestDetectTextHybrid(t *testing.T) {
	s := NewServer(Options{Scorer: stubScorer{likelihood: 0.9}, Hybrid: hybrid.Settings{Provider: "stub", TraditionalWeight: 0.4, AIWeight: 0.6}})
	result, err := s.handleDetectText(context.Background(), callRequest(map[string]any{"text": patentText, "hybrid": true}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Hybrid Analysis:")
	assert.Contains(t, text, "llm likelihood: 0.90 (stub)")
}

func TestDetectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patent.txt")
	require.NoError(t, os.WriteFile(path, []byte(patentText), 0o644))

	s := NewServer(Options{})
	result, err := s.handleDetectFile(context.Background(), callRequest(map[string]any{"path": path}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.True(t, strings.HasPrefix(extractTextFromResult(result), "AI Document Detection Report"))

	result, err = s.handleDetectFile(context.Background(), callRequest(map[string]any{"path": filepath.Join(t.TempDir(), "missing.pdf")}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestListPresets(t *testing.T) {
	s := NewServer(Options{})
	result, err := s.handleListPresets(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	for _, name := range aidetect.PresetNames() {
		assert.Contains(t, text, name+" (threshold 0.60)")
	}
	assert.Contains(t, text, "  - drawing_descriptions: 0.10")
}

func TestServeListsToolsAndStopsOnCancel(t *testing.T) {
	s := NewServer(Options{})
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	t.Cleanup(func() {
		_ = inW.Close()
		_ = outR.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, inR, outW) }()

	go func() {
		_, _ = io.WriteString(inW, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n")
	}()
	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(outR).ReadString('\n')
		lines <- line
	}()

	select {
	case line := <-lines:
		assert.Contains(t, line, `"id":1`)
		assert.Contains(t, line, "detect_ai_text")
		assert.Contains(t, line, "list_presets")
	case <-time.After(5 * time.Second):
		t.Fatal("no response to tools/list")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestServeReturnsOnEOF(t *testing.T) {
	s := NewServer(Options{})
	var out strings.Builder
	assert.NoError(t, s.Serve(context.Background(), strings.NewReader(""), &out))
}
