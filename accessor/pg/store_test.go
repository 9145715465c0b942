package pg

import "testing"

func TestMatchesAll(t *testing.T) {
	doc := map[string]any{"name": "alice", "age": 30}
	if !matchesAll(doc, map[string]any{"name": "alice"}) {
		t.Fatalf("expected match")
	}
	if matchesAll(doc, map[string]any{"name": "bob"}) {
		t.Fatalf("expected no match")
	}
	if !matchesAll(doc, map[string]any{}) {
		t.Fatalf("empty query should match everything")
	}
}

func TestFlattenDocs(t *testing.T) {
	single, err := flattenDocs(map[string]any{"a": 1})
	if err != nil || len(single) != 1 {
		t.Fatalf("unexpected: %v %v", single, err)
	}
	multi, err := flattenDocs([]any{map[string]any{"a": 1}, map[string]any{"b": 2}})
	if err != nil || len(multi) != 2 {
		t.Fatalf("unexpected: %v %v", multi, err)
	}
	if _, err := flattenDocs(42); err == nil {
		t.Fatalf("expected an error for a non-object, non-sequence value")
	}
}
