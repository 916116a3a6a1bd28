package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/evidra/evidra/internal/model"
)

// OpenAISummarizer generates summaries through the Chat Completions
// API.
type OpenAISummarizer struct {
	client *openai.Client
	cfg    model.LLMConfig
}

// NewOpenAISummarizer builds a summarizer; the API key is required.
func NewOpenAISummarizer(cfg model.LLMConfig) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

func (s *OpenAISummarizer) Name() string { return "openai" }

// Summarize calls the API with the evidence-constrained prompt.
func (s *OpenAISummarizer) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	modelName := s.cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := s.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}
	timeout := time.Duration(s.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You write terse, factual summaries of web evidence and cite only the URLs you are given.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
