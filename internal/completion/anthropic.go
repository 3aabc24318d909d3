package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicSystemPrompt = "You are a document intelligence assistant for " +
	"insurance and financial documents. Respond with a single JSON object " +
	"matching the requested structure and nothing else."

type anthropicService struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	logger      *slog.Logger
}

func newAnthropic(cfg *Config, logger *slog.Logger) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic backend requires api_key")
	}

	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &anthropicService{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		logger:      logger.With("system", "completion", "backend", BackendAnthropic),
	}, nil
}

func (s *anthropicService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: anthropic.Float(s.temperature),
		System: []anthropic.TextBlockParam{
			{Text: anthropicSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	s.logger.DebugContext(
		ctx, "completion returned",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)

	return sb.String(), nil
}
