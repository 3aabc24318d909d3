package semantic

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/repository"
)

const defaultQueryLimit = 10
const maxQueryLimit = 100

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a semantic index repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "semantic"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Store(ctx context.Context, cmd StoreCommand) (*Entry, error) {
	if strings.TrimSpace(cmd.Entity) == "" || strings.TrimSpace(cmd.Content) == "" {
		return nil, fmt.Errorf("%w: entity and content are required", ErrInvalidEntry)
	}

	q := `
		INSERT INTO semantic_entries(id, entity, content, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, entity, content, metadata, created_at`

	insertArgs := []any{uuid.New(), cmd.Entity, cmd.Content, cmd.Metadata}

	entry, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanEntry)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("entry indexed", "id", entry.ID, "entity", entry.Entity)
	return &entry, nil
}

func (r *repo) Query(ctx context.Context, text string, limit int) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	q := `
		SELECT id, entity, content, metadata, created_at,
		       ts_rank(search_vector, plainto_tsquery('english', $1)) AS rank
		FROM semantic_entries
		WHERE search_vector @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC, created_at DESC
		LIMIT $2`

	matches, err := repository.QueryMany(ctx, r.db, q, []any{text, limit}, scanMatch)
	if err != nil {
		return nil, fmt.Errorf("query semantic index: %w", err)
	}

	return matches, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.ID, &e.Entity, &e.Content, &e.Metadata, &e.CreatedAt)
	return e, err
}

func scanMatch(s repository.Scanner) (Match, error) {
	var m Match
	err := s.Scan(&m.ID, &m.Entity, &m.Content, &m.Metadata, &m.CreatedAt, &m.Rank)
	return m, err
}
