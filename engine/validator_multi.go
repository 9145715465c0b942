package engine

import "context"

// multiHandler implements the `multi` built-in, governing whether a
// request may affect more than one document.
func multiHandler(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
	req := vctx.Request

	allow := vctx.PermName == "read"
	switch v := config.(type) {
	case bool:
		allow = v
	case string:
		bindings := make(map[string]any, len(vctx.Injections)+3)
		for k, val := range vctx.Injections {
			bindings[k] = val
		}
		bindings["query"] = req.Query
		bindings["data"] = req.Data
		bindings["multi"] = req.Multi
		ok, err := evaluateExpression(v, bindings)
		if err != nil {
			return err.Error(), nil
		}
		allow = ok
	}

	if vctx.PermName == "add" && isSequenceValue(req.Data) && !req.Multi {
		return "multi insert operation denied", nil
	}
	if !allow && req.Multi {
		return "multi operation denied", nil
	}
	return "", nil
}
