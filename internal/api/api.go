// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/finsightai/finsight/internal/config"
	"github.com/finsightai/finsight/internal/infrastructure"
	"github.com/finsightai/finsight/pkg/middleware"
	"github.com/finsightai/finsight/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	if cfg.API.Auth.Enabled {
		auth, err := middleware.Auth(context.Background(), cfg.API.Auth, runtime.Logger)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		m.Use(auth)
	}

	return m, nil
}
