package engine

import (
	"context"
	"fmt"
)

// MatchError is one entry of a denied ValidateResult. Type is either a
// validator name, or 0 for a structural failure raised before any
// variant was walked (unknown collection, unknown action, no rules).
type MatchError struct {
	Type    any    `json:"type"`
	Message string `json:"error"`
}

// MatchedVariant identifies which rule variant matched, by its position
// in the (collection, action) variant sequence.
type MatchedVariant struct {
	Index int `json:"index"`
}

// ValidateResult is never both matched and non-empty-errors at once.
type ValidateResult struct {
	Matched *MatchedVariant `json:"matched,omitempty"`
	Errors  []MatchError    `json:"errors,omitempty"`
}

// Denied reports whether the result carries a denial.
func (r *ValidateResult) Denied() bool {
	return r.Matched == nil
}

// validate walks the compiled table for request.Collection/request.Action
// and returns the first matching variant, or every variant's first
// failing validator if none match. A non-nil error is a fault (accessor
// failure, cancellation) and is distinct from a denial.
func validate(ctx context.Context, table *Table, request *Request, vctxTemplate *ValidatorContext) (*ValidateResult, error) {
	collTable, ok := table.Collections[request.Collection]
	if !ok {
		return &ValidateResult{Errors: []MatchError{
			{Type: 0, Message: fmt.Sprintf("collection %q not found", request.Collection)},
		}}, nil
	}

	permName, ok := permissionName(request.Action)
	if !ok {
		return &ValidateResult{Errors: []MatchError{
			{Type: 0, Message: fmt.Sprintf("action %q invalid", request.Action)},
		}}, nil
	}

	variants, ok := collTable.Permissions[permName]
	if !ok || len(variants) == 0 {
		return &ValidateResult{Errors: []MatchError{
			{Type: 0, Message: fmt.Sprintf("%s %s don't has any rules", request.Collection, permName)},
		}}, nil
	}

	vctx := *vctxTemplate
	vctx.PermName = permName

	var allErrors []MatchError
	for i, variant := range variants {
		matched := true
		for _, name := range variant.Order {
			proc := variant.Processors[name]
			msg, err := proc.Handler(ctx, proc.Config, &vctx)
			if err != nil {
				return nil, err
			}
			if msg != "" {
				allErrors = append(allErrors, MatchError{Type: name, Message: msg})
				matched = false
				break
			}
		}
		if matched {
			return &ValidateResult{Matched: &MatchedVariant{Index: i}}, nil
		}
	}
	return &ValidateResult{Errors: allErrors}, nil
}
