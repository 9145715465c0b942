package engine

import "reflect"

func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func isSequenceValue(v any) bool {
	switch v.(type) {
	case []any:
		return true
	case []map[string]any:
		return true
	}
	return false
}
