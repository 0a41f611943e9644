package hybrid

import (
	"fmt"
	"log/slog"
	"time"
)

// Options configure a remote scorer. Host is the Ollama address or an
// OpenAI-compatible base URL; empty selects the provider default.
type Options struct {
	Provider    string
	Host        string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
}

func DefaultOptions() Options {
	return Options{
		Provider:    getenv("AIDD_HYBRID_PROVIDER", ProviderOllama),
		Timeout:     time.Duration(getenvInt("OLLAMA_TIMEOUT", 120)) * time.Second,
		MaxRetries:  getenvInt("OLLAMA_MAX_RETRIES", 3),
		RetryDelay:  time.Second,
		MaxTokens:   512,
		Temperature: 0,
	}
}

func NewScorer(opts Options, logger *slog.Logger) (Scorer, error) {
	switch opts.Provider {
	case "", ProviderOllama:
		return NewOllamaScorer(opts, logger), nil
	case ProviderOpenAI:
		s, err := NewOpenAIScorer(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown hybrid provider %q", opts.Provider)
	}
}
