package engine

// updateOperators is the enumerated vocabulary of Mongo-style operator
// keys, used both to detect whether a data payload "has an operator" (the
// merge/operator rule) and to strip operator keys when enumerating a
// query's top-level input fields. Kept as data, not code, so widening the
// vocabulary never touches the validators that consume it.
var updateOperators = map[string]struct{}{
	"$set":       {},
	"$inc":       {},
	"$push":      {},
	"$pull":      {},
	"$unset":     {},
	"$pop":       {},
	"$mul":       {},
	"$rename":    {},
	"$min":       {},
	"$max":       {},
	"$each":      {},
	"$or":        {},
	"$and":       {},
	"$not":       {},
	"$nor":       {},
	"$in":        {},
	"$nin":       {},
	"$eq":        {},
	"$neq":       {},
	"$gt":        {},
	"$gte":       {},
	"$lt":        {},
	"$lte":       {},
	"$exists":    {},
	"$size":      {},
	"$all":       {},
	"$regex":     {},
	"$elemMatch": {},
}

func isOperatorKey(key string) bool {
	_, ok := updateOperators[key]
	return ok
}

func containsOperatorKey(m map[string]any) bool {
	for k := range m {
		if isOperatorKey(k) {
			return true
		}
	}
	return false
}

// flattenData merges every operator sub-mapping one level up, so
// {"$set": {"a": 1}, "b": 2} flattens to {"a": 1, "b": 2}.
func flattenData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isOperatorKey(k) {
			if sub, ok := v.(map[string]any); ok {
				for sk, sv := range sub {
					out[sk] = sv
				}
				continue
			}
		}
		out[k] = v
	}
	return out
}
