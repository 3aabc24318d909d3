package api

import (
	"github.com/finsightai/finsight/internal/documents"
	"github.com/finsightai/finsight/internal/graph"
	"github.com/finsightai/finsight/internal/processing"
	"github.com/finsightai/finsight/internal/runs"
	"github.com/finsightai/finsight/internal/semantic"
	"github.com/finsightai/finsight/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents  documents.System
	Runs       runs.System
	Semantic   semantic.System
	Graph      graph.System
	Processing processing.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	runsSystem := runs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	semanticSystem := semantic.New(runtime.Database.Connection(), runtime.Logger)
	graphSystem := graph.New(runtime.Database.Connection(), runtime.Logger)

	processingSystem := processing.New(
		workflow.NewRunner(runtime.Completion, runtime.Logger),
		docsSystem,
		runsSystem,
		semanticSystem,
		graphSystem,
		runtime.Logger,
	)

	return &Domain{
		Documents:  docsSystem,
		Runs:       runsSystem,
		Semantic:   semanticSystem,
		Graph:      graphSystem,
		Processing: processingSystem,
	}
}
