package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/pagination"
)

// System defines the public contract for run persistence.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Record(ctx context.Context, cmd RecordCommand) (*Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
