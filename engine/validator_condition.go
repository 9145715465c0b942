package engine

import (
	"context"
	"fmt"
)

// conditionHandler implements the `condition` built-in. config is a
// boolean, a sandbox expression string, or a sequence of either, matched
// as an AND: every element must hold for the variant to pass.
func conditionHandler(ctx context.Context, config any, vctx *ValidatorContext) (string, error) {
	if isUndefined(config) {
		return "", nil
	}
	switch v := config.(type) {
	case bool:
		if v {
			return "", nil
		}
		return "condition evaluted to false", nil
	case string:
		ok, err := evaluateExpression(v, vctx.Injections)
		if err != nil {
			return err.Error(), nil
		}
		if !ok {
			return "condition evaluted to false", nil
		}
		return "", nil
	case []any:
		for _, item := range v {
			msg, err := conditionHandler(ctx, item, vctx)
			if err != nil {
				return "", err
			}
			if msg != "" {
				return msg, nil
			}
		}
		return "", nil
	default:
		return "", fmt.Errorf("condition: unsupported config type %T", config)
	}
}
