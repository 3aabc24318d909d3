package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// goAgents adapts a go-agents Chat agent to the Service contract. The
// underlying agent handles provider auth, request shaping, and retryable
// transport details for OpenAI-compatible, Azure, and Ollama endpoints.
type goAgents struct {
	agent  agent.Agent
	logger *slog.Logger
}

func newGoAgents(cfg *gaconfig.AgentConfig, logger *slog.Logger) (Service, error) {
	a, err := agent.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &goAgents{
		agent:  a,
		logger: logger.With("system", "completion", "backend", BackendGoAgents),
	}, nil
}

func (s *goAgents) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.agent.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	s.logger.DebugContext(ctx, "completion returned", "prompt_len", len(prompt))
	return resp.Content(), nil
}
