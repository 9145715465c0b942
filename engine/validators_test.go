package engine

import (
	"context"
	"testing"
)

func TestQueryWhitelistSequenceForm(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"read": map[string]any{"query": []any{"name", "active"}},
		},
	}
	e := mustCompileEngine(t, rules)

	ok := &Request{Collection: "categories", Action: ActionRead, Query: map[string]any{"name": "x"}}
	result, err := e.Validate(context.Background(), ok, nil)
	if err != nil || result.Matched == nil {
		t.Fatalf("expected match, got %+v / %v", result, err)
	}

	bad := &Request{Collection: "categories", Action: ActionRead, Query: map[string]any{"secret": "x"}}
	result, err = e.Validate(context.Background(), bad, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched != nil || result.Errors[0].Message != "the field 'secret' is NOT allowed]" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestQueryOperatorKeysAreStripped(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"read": map[string]any{"query": []any{"name"}},
		},
	}
	e := mustCompileEngine(t, rules)

	req := &Request{Collection: "categories", Action: ActionRead, Query: map[string]any{
		"name": "x",
		"$or":  []any{map[string]any{"name": "y"}},
	}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched == nil {
		t.Fatalf("expected match, $or should be stripped from the field check, got %+v", result.Errors)
	}
}

func TestMultiDefaultDeniesNonRead(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"remove": true,
		},
	}
	e := mustCompileEngine(t, rules)

	req := &Request{Collection: "categories", Action: ActionRemove, Multi: true}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched != nil || result.Errors[len(result.Errors)-1].Message != "multi operation denied" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMultiInsertDeniedWithoutFlag(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"add": true,
		},
	}
	e := mustCompileEngine(t, rules)

	req := &Request{Collection: "categories", Action: ActionAdd, Data: []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	found := false
	for _, e := range result.Errors {
		if e.Message == "multi insert operation denied" {
			found = true
		}
	}
	if result.Matched != nil || !found {
		t.Fatalf("expected multi insert denial, got %+v", result)
	}
}

func TestMultiInsertAllowedWithFlag(t *testing.T) {
	// multi defaults to denied for every action except read, so the rule
	// has to grant it explicitly for a flagged multi-insert to pass.
	rules := map[string]any{
		"categories": map[string]any{
			"add": map[string]any{"condition": true, "multi": true},
		},
	}
	e := mustCompileEngine(t, rules)

	req := &Request{Collection: "categories", Action: ActionAdd, Multi: true, Data: []any{
		map[string]any{"name": "a"},
	}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched == nil {
		t.Fatalf("expected match, got %+v", result.Errors)
	}
}

func TestUniqueRejectsExistingValue(t *testing.T) {
	store := newFakeStore()
	store.seed("categories", "slug", "taken", map[string]any{"slug": "taken"})
	e := NewEngine(store)
	rules := map[string]any{
		"categories": map[string]any{
			"add": map[string]any{
				"data": map[string]any{"slug": map[string]any{"unique": true}},
			},
		},
	}
	if err := e.Load(rules); err != nil {
		t.Fatalf("load: %v", err)
	}

	req := &Request{Collection: "categories", Action: ActionAdd, Data: map[string]any{"slug": "taken"}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched != nil || result.Errors[0].Message != "slug already exists" {
		t.Fatalf("unexpected result: %+v", result)
	}

	req2 := &Request{Collection: "categories", Action: ActionAdd, Data: map[string]any{"slug": "fresh"}}
	result2, err := e.Validate(context.Background(), req2, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result2.Matched == nil {
		t.Fatalf("expected match for a fresh slug, got %+v", result2.Errors)
	}
}

func TestExistsRequiresReferencedDocument(t *testing.T) {
	store := newFakeStore()
	store.seed("authors", "id", "a1", map[string]any{"id": "a1"})
	e := NewEngine(store)
	rules := map[string]any{
		"posts": map[string]any{
			"add": map[string]any{
				"data": map[string]any{"authorId": map[string]any{"exists": "/authors/id"}},
			},
		},
	}
	if err := e.Load(rules); err != nil {
		t.Fatalf("load: %v", err)
	}

	req := &Request{Collection: "posts", Action: ActionAdd, Data: map[string]any{"authorId": "missing"}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched != nil || result.Errors[0].Message != "authorId not exists" {
		t.Fatalf("unexpected result: %+v", result)
	}

	req2 := &Request{Collection: "posts", Action: ActionAdd, Data: map[string]any{"authorId": "a1"}}
	result2, err := e.Validate(context.Background(), req2, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result2.Matched == nil {
		t.Fatalf("expected match, got %+v", result2.Errors)
	}
}

func TestDefaultAppliesOnAdd(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"add": map[string]any{
				"data": map[string]any{"status": map[string]any{"default": "draft"}},
			},
		},
	}
	e := mustCompileEngine(t, rules)

	data := map[string]any{"name": "x"}
	req := &Request{Collection: "categories", Action: ActionAdd, Data: data}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched == nil {
		t.Fatalf("expected match, got %+v", result.Errors)
	}
	if data["status"] != "draft" {
		t.Fatalf("expected default to be written back into data, got %+v", data)
	}
}

func TestUpdatePartialSkipsAbsentFields(t *testing.T) {
	rules := map[string]any{
		"categories": map[string]any{
			"update": map[string]any{
				"data": map[string]any{
					"title": map[string]any{"length": []any{3}},
				},
			},
		},
	}
	e := mustCompileEngine(t, rules)

	req := &Request{Collection: "categories", Action: ActionUpdate, Data: map[string]any{"other": "x"}}
	result, err := e.Validate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Matched == nil {
		t.Fatalf("expected match, missing fields skip value checks on update, got %+v", result.Errors)
	}
}

func TestAccessorFaultPropagatesAsError(t *testing.T) {
	e := NewEngine(faultyStore{})
	rules := map[string]any{
		"categories": map[string]any{
			"add": map[string]any{
				"data": map[string]any{"slug": map[string]any{"unique": true}},
			},
		},
	}
	if err := e.Load(rules); err != nil {
		t.Fatalf("load: %v", err)
	}
	req := &Request{Collection: "categories", Action: ActionAdd, Data: map[string]any{"slug": "x"}}
	_, err := e.Validate(context.Background(), req, nil)
	if err == nil {
		t.Fatalf("expected an accessor fault")
	}
	if _, ok := err.(*AccessorError); !ok {
		t.Fatalf("expected *AccessorError, got %T", err)
	}
}

type faultyStore struct{}

func (faultyStore) Get(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	return nil, errBoom
}

func (faultyStore) Execute(ctx context.Context, req *Request) (any, error) {
	return nil, errBoom
}

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }
