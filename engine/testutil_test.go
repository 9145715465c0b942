package engine

import (
	"context"
	"fmt"
)

type fakeStore struct {
	docs map[string]map[string]any // "<collection>:<field>:<value>" -> document
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]map[string]any)}
}

func (s *fakeStore) seed(collection, field string, value any, doc map[string]any) {
	s.docs[key(collection, field, value)] = doc
}

func key(collection, field string, value any) string {
	return collection + ":" + field + ":" + toStr(value)
}

func toStr(v any) string {
	return fmt.Sprintf("%v", v)
}

func (s *fakeStore) Get(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	for field, value := range query {
		if doc, ok := s.docs[key(collection, field, value)]; ok {
			return doc, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Execute(ctx context.Context, req *Request) (any, error) {
	return map[string]any{"ok": true, "action": req.Action}, nil
}

func mustCompileEngine(t interface{ Fatalf(string, ...any) }, rules map[string]any) *Engine {
	e := NewEngine(newFakeStore())
	if err := e.Load(rules); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e
}
