package semantic

import "context"

// System defines the public contract for the semantic index.
type System interface {
	Handler() *Handler

	Store(ctx context.Context, cmd StoreCommand) (*Entry, error)
	Query(ctx context.Context, text string, limit int) ([]Match, error)
}
