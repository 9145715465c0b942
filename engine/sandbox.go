package engine

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/antonmedv/expr"
)

// dollarBinding matches a $-prefixed injection name inside an expression
// source string, e.g. $userid or $value — the injection naming convention
// rule authors write. antonmedv/expr's lexer only accepts unicode letters,
// digits, and underscore in an identifier, so a literal $ never parses;
// evaluateExpression rewrites every $name to sandboxIdent(name) in both the
// source and the bindings map before handing either to expr.
var dollarBinding = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

func sandboxIdent(name string) string {
	return "dlr_" + name
}

// evaluateExpression runs a single boolean expression against bindings in
// a fresh scope. It never touches host state outside bindings: no I/O, no
// clock, no randomness. antonmedv/expr's grammar has no assignment and no
// function definitions, which is exactly the restricted surface this
// sandbox is meant to expose.
func evaluateExpression(source string, bindings map[string]any) (bool, error) {
	translatedSource := dollarBinding.ReplaceAllString(source, sandboxIdent("$1"))

	translated := make(map[string]any, len(bindings))
	for name, val := range bindings {
		if strings.HasPrefix(name, "$") {
			name = sandboxIdent(strings.TrimPrefix(name, "$"))
		}
		translated[name] = val
	}

	program, err := expr.Compile(translatedSource, expr.Env(translated))
	if err != nil {
		return false, &ExpressionError{Source: source, Err: err}
	}
	output, err := expr.Run(program, translated)
	if err != nil {
		return false, &ExpressionError{Source: source, Err: err}
	}
	return truthy(output), nil
}

// truthy coerces an expression result to bool: null, empty string,
// numeric zero, and false are false; everything else is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int() != 0
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return rv.Uint() != 0
		case reflect.Float32, reflect.Float64:
			return rv.Float() != 0
		}
		return true
	}
}
