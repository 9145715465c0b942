package engine

import "testing"

func TestEvaluateExpressionTruthiness(t *testing.T) {
	cases := []struct {
		source string
		want   bool
	}{
		{"1 == 1", true},
		{"1 == 2", false},
		{"$a && $b", true},
		{"$a in [1, 2, 3]", true},
		{"$a > 10", false},
	}
	for _, tc := range cases {
		ok, err := evaluateExpression(tc.source, map[string]any{"$a": 1, "$b": true})
		if err != nil {
			t.Fatalf("%s: %v", tc.source, err)
		}
		if ok != tc.want {
			t.Errorf("%s: got %v want %v", tc.source, ok, tc.want)
		}
	}
}

func TestEvaluateExpressionBadSyntaxIsExpressionError(t *testing.T) {
	_, err := evaluateExpression("$a ===", map[string]any{"$a": 1})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*ExpressionError); !ok {
		t.Fatalf("expected *ExpressionError, got %T", err)
	}
}

func TestTruthyCoercion(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{0, false},
		{1, true},
		{false, false},
		{true, true},
		{int64(0), false},
		{float64(0), false},
		{float64(0.5), true},
	}
	for _, tc := range cases {
		if got := truthy(tc.v); got != tc.want {
			t.Errorf("truthy(%#v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}
