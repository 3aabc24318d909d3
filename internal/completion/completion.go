// Package completion defines the text completion contract that agents depend
// on, along with the provider implementations behind it. Agents see a single
// method; whether the prompt lands on an OpenAI-compatible endpoint or the
// Anthropic API is a deployment decision.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Service turns a prompt into raw completion text. Implementations must be
// safe for concurrent use; one Service instance is shared across all agents
// and all workflow runs.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Backend names for Config.Backend.
const (
	BackendGoAgents  = "goagents"
	BackendAnthropic = "anthropic"
)

// ErrUnknownBackend is returned by New for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown completion backend")

// New creates a Service for the configured backend. The go-agents backend
// uses the provided AgentConfig (provider, model, endpoint options); the
// Anthropic backend reads its settings from cfg directly.
func New(cfg *Config, agentCfg *gaconfig.AgentConfig, logger *slog.Logger) (Service, error) {
	switch cfg.Backend {
	case BackendGoAgents:
		return newGoAgents(agentCfg, logger)
	case BackendAnthropic:
		return newAnthropic(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
