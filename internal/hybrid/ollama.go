package hybrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"doc_detector/internal/prompts"
)

type OllamaScorer struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	maxRetries  int
	retryDelay  time.Duration
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaScorer(opts Options, logger *slog.Logger) *OllamaScorer {
	if logger == nil {
		logger = slog.Default()
	}
	model := opts.Model
	if model == "" {
		model = getenv("DEFAULT_MODEL", "llama3.2")
	}
	host := opts.Host
	if host == "" {
		host = getenv("OLLAMA_HOST", "http://localhost:11434")
	}
	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &OllamaScorer{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		baseURL:     strings.TrimSuffix(host, "/"),
		model:       model,
		maxRetries:  retries,
		retryDelay:  opts.RetryDelay,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      logger,
	}
}

func (o *OllamaScorer) Score(ctx context.Context, text string) (Assessment, error) {
	raw, err := o.Generate(ctx, prompts.DetectionPrompt(text))
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, err)
	}
	a, err := ParseAssessment(raw)
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, err)
	}
	a.Model = o.model
	return a, nil
}

// Generate posts a non-streaming completion, retrying transport and server
// failures up to maxRetries times.
func (o *OllamaScorer) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		out, err := o.generateOnce(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		o.logger.Warn("Ollama generate attempt failed", "attempt", attempt, "model", o.model, "error", err)
		if ctx.Err() != nil {
			break
		}
		if attempt < o.maxRetries && o.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("ollama request canceled: %w", ctx.Err())
			case <-time.After(o.retryDelay):
			}
		}
	}
	return "", fmt.Errorf("ollama request failed after %d attempt(s): %w", o.maxRetries, lastErr)
}

func (o *OllamaScorer) generateOnce(ctx context.Context, prompt string) (string, error) {
	payload := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": o.temperature,
			"num_predict": o.maxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request to Ollama: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request to Ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama API call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from Ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound && strings.Contains(string(respBody), "not found") {
			return "", fmt.Errorf("model %q not found, run: ollama pull %s", o.model, o.model)
		}
		return "", fmt.Errorf("ollama failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse Ollama response: %w", err)
	}
	return out.Response, nil
}
