package engine

import "context"

// Accessor is the entire coupling the Rule Engine has to the data store:
// a single-document lookup used by the `exists` and `unique` field rules.
// A nil return means "no document found", not an error.
type Accessor interface {
	Get(ctx context.Context, collection string, query map[string]any) (map[string]any, error)
}

// Store is the wider, opaque CRUD surface the Entry Facade forwards a
// validated request to. It embeds Accessor because the same connection
// that serves exists/unique lookups typically serves everything else.
type Store interface {
	Accessor
	Execute(ctx context.Context, req *Request) (any, error)
}
