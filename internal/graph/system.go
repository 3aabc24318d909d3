package graph

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for the knowledge graph.
type System interface {
	Handler() *Handler

	AddEntity(ctx context.Context, cmd EntityCommand) (*Entity, error)
	Relate(ctx context.Context, cmd RelationCommand) (*Relation, error)
	Paths(ctx context.Context, from uuid.UUID, maxDepth int) ([]Path, error)
}
