// Package graph implements the knowledge graph built from processed
// documents: typed entities, directed relations, and bounded-depth path
// traversal via a recursive CTE.
package graph

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity is one graph node.
type Entity struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Properties json.RawMessage `json:"properties,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Relation is one directed edge between entities.
type Relation struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Path is one traversal result: the visited node IDs in order and the edge
// kinds between them. Depth equals len(Relations).
type Path struct {
	Nodes     []uuid.UUID `json:"nodes"`
	Relations []string    `json:"relations"`
	Depth     int         `json:"depth"`
}

// EntityCommand carries one entity for insertion.
type EntityCommand struct {
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// RelationCommand carries one relation for insertion.
type RelationCommand struct {
	FromID uuid.UUID `json:"from_id"`
	ToID   uuid.UUID `json:"to_id"`
	Kind   string    `json:"kind"`
}
