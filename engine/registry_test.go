package engine

import (
	"context"
	"testing"
)

func TestRegistryBuiltinOrder(t *testing.T) {
	r := NewRegistry()
	want := []string{"condition", "data", "query", "multi"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	err := r.Register("", func(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
		return "", nil
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRegistryRejectsNilHandler(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("custom", nil); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRegistryExtension(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("relation", func(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
		return "", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	names := r.Names()
	if names[len(names)-1] != "relation" {
		t.Fatalf("expected relation appended last, got %v", names)
	}
	if _, ok := r.Lookup("relation"); !ok {
		t.Fatalf("expected relation to be looked up")
	}
}
