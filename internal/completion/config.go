package completion

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds completion service settings. Backend selects the provider
// implementation; Model, MaxTokens, Temperature, and APIKey configure the
// Anthropic backend (the go-agents backend carries its own AgentConfig).
// Temperature defaults low so that repeated runs over the same document are
// as reproducible as the provider allows.
type Config struct {
	Backend     string  `toml:"backend"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	APIKey      string  `toml:"api_key"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend     string
	Model       string
	MaxTokens   string
	Temperature string
	APIKey      string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGoAgents
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.MaxTokens != "" {
		if v := os.Getenv(env.MaxTokens); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxTokens = n
			}
		}
	}
	if env.Temperature != "" {
		if v := os.Getenv(env.Temperature); v != "" {
			if t, err := strconv.ParseFloat(v, 64); err == nil {
				c.Temperature = t
			}
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
}

func (c *Config) validate() error {
	if c.Backend != BackendGoAgents && c.Backend != BackendAnthropic {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("invalid temperature: %f", c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("invalid max_tokens: %d", c.MaxTokens)
	}
	return nil
}
