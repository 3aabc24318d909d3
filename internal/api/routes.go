package api

import (
	"net/http"

	"github.com/finsightai/finsight/internal/config"
	"github.com/finsightai/finsight/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
	routes.Register(mux, domain.Runs.Handler().Routes())
	routes.Register(mux, domain.Semantic.Handler().Routes())
	routes.Register(mux, domain.Graph.Handler().Routes())
	routes.Register(mux, domain.Processing.Handler().Routes())

	storage := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		int32(cfg.API.Pagination.MaxPageSize),
	)
	routes.Register(mux, storage.routes())
}
