package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"unicode/utf8"
)

// fieldRule is the compiled form of a field-rule entry: either a bare
// string shorthand for {condition: "<string>"}, or an object with a
// subset of the recognized keys.
type fieldRule struct {
	Required bool

	HasDefault bool
	Default    any

	HasIn bool
	In    []any

	HasLength    bool
	LengthMin    float64
	HasLengthMax bool
	LengthMax    float64

	HasNumber    bool
	NumberMin    float64
	HasNumberMax bool
	NumberMax    float64

	Match *regexp.Regexp

	Exists *existsSpec
	Unique bool

	HasCondition bool
	Condition    string
}

type existsSpec struct {
	Collection string
	Key        string
}

func parseFieldRule(raw any) (*fieldRule, error) {
	switch v := raw.(type) {
	case string:
		return &fieldRule{HasCondition: true, Condition: v}, nil
	case map[string]any:
		fr := &fieldRule{}
		for key, val := range v {
			switch key {
			case "required":
				b, _ := val.(bool)
				fr.Required = b
			case "default":
				fr.HasDefault = true
				fr.Default = val
			case "in":
				seq, ok := val.([]any)
				if !ok {
					return nil, newCompileError(BadShape, "in must be a sequence")
				}
				fr.HasIn = true
				fr.In = seq
			case "length":
				nums, err := parseNumSeq(val)
				if err != nil {
					return nil, err
				}
				fr.HasLength = true
				fr.LengthMin = nums[0]
				if len(nums) > 1 {
					fr.HasLengthMax = true
					fr.LengthMax = nums[1]
				}
			case "number":
				nums, err := parseNumSeq(val)
				if err != nil {
					return nil, err
				}
				fr.HasNumber = true
				fr.NumberMin = nums[0]
				if len(nums) > 1 {
					fr.HasNumberMax = true
					fr.NumberMax = nums[1]
				}
			case "match":
				s, ok := val.(string)
				if !ok {
					return nil, newCompileError(BadShape, "match must be a string")
				}
				re, err := regexp.Compile(s)
				if err != nil {
					return nil, newCompileError(BadShape, "match: %v", err)
				}
				fr.Match = re
			case "exists":
				s, ok := val.(string)
				if !ok {
					return nil, newCompileError(BadShape, "exists must be a string")
				}
				spec, err := parseExistsSpec(s)
				if err != nil {
					return nil, err
				}
				fr.Exists = spec
			case "unique":
				fr.Unique = truthyAny(val)
			case "condition":
				s, ok := val.(string)
				if !ok {
					return nil, newCompileError(BadShape, "condition must be a string")
				}
				fr.HasCondition = true
				fr.Condition = s
			default:
				return nil, newCompileError(UnknownRule, "unknown field rule %q", key)
			}
		}
		return fr, nil
	default:
		return nil, newCompileError(BadShape, "field rule must be a string or an object")
	}
}

func parseNumSeq(val any) ([]float64, error) {
	seq, ok := val.([]any)
	if !ok || len(seq) == 0 || len(seq) > 2 {
		return nil, newCompileError(BadShape, "expected a [min] or [min, max] sequence")
	}
	out := make([]float64, 0, len(seq))
	for _, item := range seq {
		n, ok := toFloat(item)
		if !ok {
			return nil, newCompileError(BadShape, "expected a numeric bound")
		}
		out = append(out, n)
	}
	return out, nil
}

func parseExistsSpec(s string) (*existsSpec, error) {
	trimmed := s
	if len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	idx := -1
	for i, c := range trimmed {
		if c == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newCompileError(BadShape, "exists must look like \"/collection/key\"")
	}
	return &existsSpec{Collection: trimmed[:idx], Key: trimmed[idx+1:]}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func truthyAny(v any) bool {
	return truthy(v)
}

func stringLength(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	return utf8.RuneCountInString(s), true
}

// runValueChecks applies every configured value-level check for a
// present, non-empty field value. It stops at the first non-match.
func runValueChecks(ctx context.Context, field string, fr *fieldRule, val any, vctx *ValidatorContext) (string, error) {
	if fr.HasIn {
		if !inSeq(fr.In, val) {
			return fmt.Sprintf("%s should equal to one of [%s]", field, csvJoin(fr.In)), nil
		}
	}
	if fr.HasLength {
		n, ok := stringLength(val)
		if !ok || float64(n) < fr.LengthMin || (fr.HasLengthMax && float64(n) > fr.LengthMax) {
			return lengthMessage(field, fr), nil
		}
	}
	if fr.HasNumber {
		n, ok := toFloat(val)
		if !ok || n < fr.NumberMin || (fr.HasNumberMax && n > fr.NumberMax) {
			return numberMessage(field, fr), nil
		}
	}
	if fr.Match != nil {
		s, ok := val.(string)
		if !ok || !fr.Match.MatchString(s) {
			return fmt.Sprintf("%s had invalid format", field), nil
		}
	}
	if fr.Exists != nil {
		doc, err := vctx.Accessor.Get(ctx, fr.Exists.Collection, map[string]any{fr.Exists.Key: val})
		if err != nil {
			return "", &AccessorError{Op: "exists", Err: err}
		}
		if doc == nil {
			return fmt.Sprintf("%s not exists", field), nil
		}
	}
	if fr.Unique {
		doc, err := vctx.Accessor.Get(ctx, vctx.Request.Collection, map[string]any{field: val})
		if err != nil {
			return "", &AccessorError{Op: "unique", Err: err}
		}
		if doc != nil {
			return fmt.Sprintf("%s already exists", field), nil
		}
	}
	if fr.HasCondition {
		bindings := make(map[string]any, len(vctx.Injections)+1)
		for k, v := range vctx.Injections {
			bindings[k] = v
		}
		bindings["$value"] = val
		ok, err := evaluateExpression(fr.Condition, bindings)
		if err != nil {
			return err.Error(), nil
		}
		if !ok {
			return "condition evaluted to false", nil
		}
	}
	return "", nil
}

func lengthMessage(field string, fr *fieldRule) string {
	if fr.HasLengthMax {
		return fmt.Sprintf("length of %s should >= %v and <= %v", field, fr.LengthMin, fr.LengthMax)
	}
	return fmt.Sprintf("length of %s should >= %v", field, fr.LengthMin)
}

func numberMessage(field string, fr *fieldRule) string {
	if fr.HasNumberMax {
		return fmt.Sprintf("%s should >= %v and <= %v", field, fr.NumberMin, fr.NumberMax)
	}
	return fmt.Sprintf("%s should >= %v", field, fr.NumberMin)
}

func inSeq(seq []any, val any) bool {
	for _, item := range seq {
		if deepEqual(item, val) {
			return true
		}
	}
	return false
}

func csvJoin(seq []any) string {
	out := ""
	for i, item := range seq {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%v", item)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
