package hybrid

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"doc_detector/internal/prompts"
)

type OpenAIScorer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIScorer(opts Options) (*OpenAIScorer, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = getenv("OPENAI_API_KEY", "")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai scorer: no API key configured")
	}
	model := opts.Model
	if model == "" {
		model = getenv("OPENAI_MODEL", "gpt-4o-mini")
	}
	conf := openai.DefaultConfig(apiKey)
	if opts.Host != "" {
		conf.BaseURL = opts.Host
	}
	return &OpenAIScorer{
		client:      openai.NewClientWithConfig(conf),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: float32(opts.Temperature),
	}, nil
}

func (o *OpenAIScorer) Score(ctx context.Context, text string) (Assessment, error) {
	// Temperature is omitempty; a literal zero would fall back to the provider default.
	temperature := o.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.DetectionSystem},
			{Role: openai.ChatMessageRoleUser, Content: prompts.DetectionUserPrompt(text)},
		},
		Temperature:         temperature,
		MaxCompletionTokens: o.maxTokens,
		ResponseFormat:      &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: openai API call failed: %w", ErrScorerUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Assessment{}, fmt.Errorf("%w: openai returned no choices", ErrScorerUnavailable)
	}
	a, err := ParseAssessment(resp.Choices[0].Message.Content)
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, err)
	}
	a.Model = o.model
	return a, nil
}
