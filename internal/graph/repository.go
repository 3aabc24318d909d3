package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/repository"
)

const defaultPathDepth = 3
const maxPathDepth = 6

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a knowledge graph repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "graph"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) AddEntity(ctx context.Context, cmd EntityCommand) (*Entity, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Kind) == "" {
		return nil, fmt.Errorf("%w: name and kind are required", ErrInvalidEntity)
	}

	// Upsert on (name, kind) so repeated projections of the same entity
	// converge on one node.
	q := `
		INSERT INTO graph_entities(id, name, kind, properties)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, kind) DO UPDATE
		SET properties = COALESCE(EXCLUDED.properties, graph_entities.properties)
		RETURNING id, name, kind, properties, created_at`

	insertArgs := []any{uuid.New(), cmd.Name, cmd.Kind, cmd.Properties}

	entity, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entity, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanEntity)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("entity added", "id", entity.ID, "name", entity.Name, "kind", entity.Kind)
	return &entity, nil
}

func (r *repo) Relate(ctx context.Context, cmd RelationCommand) (*Relation, error) {
	if cmd.FromID == uuid.Nil || cmd.ToID == uuid.Nil || strings.TrimSpace(cmd.Kind) == "" {
		return nil, fmt.Errorf("%w: from_id, to_id, and kind are required", ErrInvalidRelation)
	}

	q := `
		INSERT INTO graph_relations(id, from_id, to_id, kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_id, to_id, kind) DO UPDATE SET kind = EXCLUDED.kind
		RETURNING id, from_id, to_id, kind, created_at`

	insertArgs := []any{uuid.New(), cmd.FromID, cmd.ToID, cmd.Kind}

	rel, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Relation, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanRelation)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("relation added", "from", rel.FromID, "to", rel.ToID, "kind", rel.Kind)
	return &rel, nil
}

// Paths walks outgoing relations from an entity up to maxDepth hops. Cycles
// are pruned by excluding already-visited nodes. Node and kind arrays travel
// as JSON to keep scanning on database/sql.
func (r *repo) Paths(ctx context.Context, from uuid.UUID, maxDepth int) ([]Path, error) {
	if from == uuid.Nil {
		return nil, fmt.Errorf("%w: from entity is required", ErrInvalidEntity)
	}
	if maxDepth < 1 {
		maxDepth = defaultPathDepth
	}
	if maxDepth > maxPathDepth {
		maxDepth = maxPathDepth
	}

	q := `
		WITH RECURSIVE walk AS (
			SELECT r.to_id,
			       ARRAY[r.from_id, r.to_id] AS nodes,
			       ARRAY[r.kind] AS kinds,
			       1 AS depth
			FROM graph_relations r
			WHERE r.from_id = $1
			UNION ALL
			SELECT r.to_id,
			       w.nodes || r.to_id,
			       w.kinds || r.kind,
			       w.depth + 1
			FROM walk w
			JOIN graph_relations r ON r.from_id = w.to_id
			WHERE w.depth < $2 AND NOT r.to_id = ANY(w.nodes)
		)
		SELECT to_jsonb(nodes)::text, to_jsonb(kinds)::text, depth
		FROM walk
		ORDER BY depth, nodes`

	paths, err := repository.QueryMany(ctx, r.db, q, []any{from, maxDepth}, scanPath)
	if err != nil {
		return nil, fmt.Errorf("query graph paths: %w", err)
	}

	return paths, nil
}

func scanEntity(s repository.Scanner) (Entity, error) {
	var e Entity
	err := s.Scan(&e.ID, &e.Name, &e.Kind, &e.Properties, &e.CreatedAt)
	return e, err
}

func scanRelation(s repository.Scanner) (Relation, error) {
	var rel Relation
	err := s.Scan(&rel.ID, &rel.FromID, &rel.ToID, &rel.Kind, &rel.CreatedAt)
	return rel, err
}

func scanPath(s repository.Scanner) (Path, error) {
	var p Path
	var nodes, kinds string

	if err := s.Scan(&nodes, &kinds, &p.Depth); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(nodes), &p.Nodes); err != nil {
		return p, fmt.Errorf("decode path nodes: %w", err)
	}
	if err := json.Unmarshal([]byte(kinds), &p.Relations); err != nil {
		return p, fmt.Errorf("decode path relations: %w", err)
	}

	return p, nil
}
