package rules

import "testing"

func TestDecodeJSON(t *testing.T) {
	out, err := Decode([]byte(`{"categories": {"read": true}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cats, ok := out["categories"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if cats["read"] != true {
		t.Fatalf("unexpected value: %+v", cats)
	}
}

func TestDecodeYAML(t *testing.T) {
	out, err := Decode([]byte("categories:\n  read: true\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cats, ok := out["categories"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if cats["read"] != true {
		t.Fatalf("unexpected value: %+v", cats)
	}
}
