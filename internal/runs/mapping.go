package runs

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/query"
	"github.com/finsightai/finsight/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "workflow_runs", "r").
	Project("id", "ID").
	Project("workflow", "Workflow").
	Project("document_id", "DocumentID").
	Project("check_id", "CheckID").
	Project("status", "Status").
	Project("state", "State").
	Project("error_count", "ErrorCount").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries. Nil fields
// are ignored; all filters use exact matching.
type Filters struct {
	Workflow   *string    `json:"workflow,omitempty"`
	Status     *string    `json:"status,omitempty"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	CheckID    *uuid.UUID `json:"check_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Workflow", f.Workflow).
		WhereEquals("Status", f.Status).
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("CheckID", f.CheckID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if w := values.Get("workflow"); w != "" {
		f.Workflow = &w
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if did := values.Get("document_id"); did != "" {
		if v, err := uuid.Parse(did); err == nil {
			f.DocumentID = &v
		}
	}

	if cid := values.Get("check_id"); cid != "" {
		if v, err := uuid.Parse(cid); err == nil {
			f.CheckID = &v
		}
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.Workflow,
		&r.DocumentID,
		&r.CheckID,
		&r.Status,
		&r.State,
		&r.ErrorCount,
		&r.CreatedAt,
	)
	return r, err
}
