package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/pagination"
	"github.com/finsightai/finsight/pkg/query"
	"github.com/finsightai/finsight/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Workflow", "Status")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Run, error) {
	if cmd.Workflow != WorkflowDocumentProcessing && cmd.Workflow != WorkflowEligibilityCheck {
		return nil, fmt.Errorf("%w: unknown workflow %q", ErrInvalidRun, cmd.Workflow)
	}

	q := `
		INSERT INTO workflow_runs(id, workflow, document_id, check_id, status, state, error_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, workflow, document_id, check_id, status, state, error_count, created_at`

	insertArgs := []any{
		cmd.ID,
		cmd.Workflow,
		cmd.DocumentID,
		cmd.CheckID,
		cmd.Status,
		cmd.State,
		cmd.ErrorCount,
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanRun)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"run recorded",
		"id", run.ID,
		"workflow", run.Workflow,
		"status", run.Status,
		"errors", run.ErrorCount,
	)
	return &run, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM workflow_runs WHERE id = $1",
			id,
		)
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run deleted", "id", id)
	return nil
}
