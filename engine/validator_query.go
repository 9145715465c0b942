package engine

import "context"

// queryConfig is the compiled form of a `query` validator config. Allowed
// holds the whitelist of top-level query fields; Fields additionally
// carries a field rule when the source gave a mapping rather than a bare
// sequence of names.
type queryConfig struct {
	Allowed map[string]bool
	Fields  map[string]*fieldRule
}

func prepareQueryConfig(raw any) (any, error) {
	switch v := raw.(type) {
	case []any:
		allowed := make(map[string]bool, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, newCompileError(BadShape, "query whitelist entries must be strings")
			}
			allowed[s] = true
		}
		return &queryConfig{Allowed: allowed}, nil
	case map[string]any:
		allowed := make(map[string]bool, len(v))
		fields := make(map[string]*fieldRule, len(v))
		for field, rawRule := range v {
			fr, err := parseFieldRule(rawRule)
			if err != nil {
				return nil, err
			}
			fields[field] = fr
			allowed[field] = true
		}
		return &queryConfig{Allowed: allowed, Fields: fields}, nil
	default:
		return nil, newCompileError(BadShape, "query config must be a sequence or an object")
	}
}

// queryHandler implements the `query` built-in.
func queryHandler(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
	if isUndefined(config) {
		return "", nil
	}
	cfg := config.(*queryConfig)
	req := vctx.Request

	if req.Query == nil {
		return "query is undefined", nil
	}

	for _, field := range sortedKeys(req.Query) {
		if isOperatorKey(field) {
			continue
		}
		if !cfg.Allowed[field] {
			return "the field '" + field + "' is NOT allowed]", nil
		}
		if cfg.Fields == nil {
			continue
		}
		fr, ok := cfg.Fields[field]
		if !ok {
			continue
		}
		msg, err := runValueChecks(ctx, field, fr, req.Query[field], vctx)
		if err != nil {
			return "", err
		}
		if msg != "" {
			return msg, nil
		}
	}
	return "", nil
}
