package rulecache

import (
	"context"
	"testing"
	"time"
)

func TestSeenDedup(t *testing.T) {
	c, err := New(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if c.Seen("users", []byte(`{"categories":{"read":true}}`)) {
		t.Fatalf("first sighting should not be seen")
	}
	if !c.Seen("users", []byte(`{"categories":{"read":true}}`)) {
		t.Fatalf("identical bytes should be seen")
	}
	if c.Seen("users", []byte(`{"categories":{"read":false}}`)) {
		t.Fatalf("changed bytes should not be seen")
	}
	if c.Seen("orders", []byte(`{"categories":{"read":true}}`)) {
		t.Fatalf("same bytes under a different collection should not be seen")
	}
}
