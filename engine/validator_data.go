package engine

import (
	"context"
	"errors"
	"sort"
)

var errBadDataShape = errors.New("data must be an object or a sequence of objects")

// dataConfig is the compiled form of a `data` validator config: a mapping
// of field name to its compiled field rule.
type dataConfig struct {
	Fields map[string]*fieldRule
}

func prepareDataConfig(raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, newCompileError(BadShape, "data config must be an object")
	}
	fields := make(map[string]*fieldRule, len(m))
	for field, rawRule := range m {
		fr, err := parseFieldRule(rawRule)
		if err != nil {
			return nil, err
		}
		fields[field] = fr
	}
	return &dataConfig{Fields: fields}, nil
}

// dataHandler implements the `data` built-in. It applies only to add and
// update actions; the variant author is responsible for only attaching a
// `data` config where it makes sense.
func dataHandler(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
	if isUndefined(config) {
		return "", nil
	}
	cfg := config.(*dataConfig)
	req := vctx.Request

	if req.Data == nil {
		return "data is undefined", nil
	}
	items, err := normalizeDataItems(req.Data)
	if err != nil {
		return "data must be an object", nil
	}
	if len(items) == 0 {
		return "data is empty", nil
	}

	for _, item := range items {
		if len(item) == 0 {
			return "data is empty", nil
		}

		hasOperator := containsOperatorKey(item)
		if vctx.PermName == "update" {
			if req.Merge && !hasOperator {
				return "data must contain operator while `merge` with true", nil
			}
			if !req.Merge && hasOperator {
				return "data must not contain any operator", nil
			}
		}

		flat := flattenData(item)
		for _, field := range sortedFieldNames(cfg.Fields) {
			fr := cfg.Fields[field]
			msg, err := checkDataFieldRule(ctx, field, fr, flat, item, vctx)
			if err != nil {
				return "", err
			}
			if msg != "" {
				return msg, nil
			}
		}
	}
	return "", nil
}

func sortedFieldNames(fields map[string]*fieldRule) []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalizeDataItems reduces request.Data to the list of document maps it
// represents: one for a plain object, many for a sequence (multi-insert).
func normalizeDataItems(data any) ([]map[string]any, error) {
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
				return nil, errBadDataShape
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, errBadDataShape
	}
}

func checkDataFieldRule(ctx context.Context, field string, fr *fieldRule, flat map[string]any, original map[string]any, vctx *ValidatorContext) (string, error) {
	val, present := flat[field]
	empty := !present || val == nil

	if vctx.PermName == "add" {
		if fr.Required && empty && !fr.HasDefault {
			return field + " is required", nil
		}
		if empty && fr.HasDefault {
			original[field] = fr.Default
			val = fr.Default
			empty = false
		}
	} else if empty {
		// update: required/default are ignored, partial updates skip
		// all value checks for fields that are not present.
		return "", nil
	}

	if empty {
		return "", nil
	}
	return runValueChecks(ctx, field, fr, val, vctx)
}
