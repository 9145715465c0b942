// Package pg implements the Rule Engine's engine.Store contract against
// a single JSONB-backed documents table, so the engine has at least one
// concrete store to exercise the Accessor Port end to end.
package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruleguard/ruleguard/engine"
)

// Store is a minimal pgx-backed implementation of engine.Store. It keeps
// every collection's documents in one table:
//
//	create table documents (
//	    collection text not null,
//	    id         text not null,
//	    body       jsonb not null,
//	    primary key (collection, id)
//	);
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pgx pool. Callers own the pool's lifecycle.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get implements engine.Accessor. It returns the first document in
// collection whose fields match every key in query, or nil if none match.
func (s *Store) Get(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	rows, err := s.pool.Query(ctx, `select body from documents where collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("pg: get %s: %w", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("pg: scan %s: %w", collection, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("pg: decode %s: %w", collection, err)
		}
		if matchesAll(doc, query) {
			return doc, nil
		}
	}
	return nil, rows.Err()
}

func matchesAll(doc, query map[string]any) bool {
	for k, want := range query {
		if got, ok := doc[k]; !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Execute implements engine.Store, forwarding an already-validated
// request to its CRUD action.
func (s *Store) Execute(ctx context.Context, req *engine.Request) (any, error) {
	switch req.Action {
	case engine.ActionAdd:
		return s.add(ctx, req)
	case engine.ActionRead:
		return s.read(ctx, req)
	case engine.ActionUpdate:
		return s.update(ctx, req)
	case engine.ActionRemove:
		return s.remove(ctx, req)
	case engine.ActionCount:
		return s.count(ctx, req)
	default:
		return nil, fmt.Errorf("pg: unsupported action %q", req.Action)
	}
}

func (s *Store) add(ctx context.Context, req *engine.Request) (any, error) {
	docs, err := flattenDocs(req.Data)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		id, _ := doc["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("pg: add %s: document missing id", req.Collection)
		}
		if _, err := s.pool.Exec(ctx,
			`insert into documents (collection, id, body) values ($1, $2, $3)
			 on conflict (collection, id) do nothing`,
			req.Collection, id, body); err != nil {
			return nil, fmt.Errorf("pg: add %s: %w", req.Collection, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) read(ctx context.Context, req *engine.Request) (any, error) {
	rows, err := s.pool.Query(ctx, `select body from documents where collection = $1`, req.Collection)
	if err != nil {
		return nil, fmt.Errorf("pg: read %s: %w", req.Collection, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if matchesAll(doc, req.Query) {
			out = append(out, doc)
		}
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}
	}
	return out, rows.Err()
}

func (s *Store) update(ctx context.Context, req *engine.Request) (any, error) {
	docs, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	matched := docs.([]map[string]any)

	flat, err := flattenDocs(req.Data)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return 0, nil
	}
	patchDoc := flat[0]

	updated := 0
	for _, doc := range matched {
		for k, v := range patchDoc {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		id, _ := doc["id"].(string)
		if _, err := s.pool.Exec(ctx,
			`update documents set body = $1 where collection = $2 and id = $3`,
			body, req.Collection, id); err != nil {
			return nil, fmt.Errorf("pg: update %s: %w", req.Collection, err)
		}
		updated++
		if !req.Multi {
			break
		}
	}
	return updated, nil
}

func (s *Store) remove(ctx context.Context, req *engine.Request) (any, error) {
	docs, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	matched := docs.([]map[string]any)
	removed := 0
	for _, doc := range matched {
		id, _ := doc["id"].(string)
		if _, err := s.pool.Exec(ctx,
			`delete from documents where collection = $1 and id = $2`,
			req.Collection, id); err != nil {
			return nil, fmt.Errorf("pg: remove %s: %w", req.Collection, err)
		}
		removed++
		if !req.Multi {
			break
		}
	}
	return removed, nil
}

func (s *Store) count(ctx context.Context, req *engine.Request) (any, error) {
	docs, err := s.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return len(docs.([]map[string]any)), nil
}

func flattenDocs(data any) ([]map[string]any, error) {
	switch v := data.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("pg: data item is not an object")
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("pg: data must be an object or a sequence of objects")
	}
}
