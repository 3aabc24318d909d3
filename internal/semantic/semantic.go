// Package semantic implements the text index used for ranked retrieval over
// processed content. Entries are indexed with Postgres full-text search and
// queried with ts_rank ordering.
package semantic

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one indexed text record tied to a named entity.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	Entity    string          `json:"entity"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Match is a ranked query hit.
type Match struct {
	Entry
	Rank float64 `json:"rank"`
}

// StoreCommand carries one entry for indexing.
type StoreCommand struct {
	Entity   string          `json:"entity"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}
