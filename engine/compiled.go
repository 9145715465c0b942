package engine

// Processor is a compiled (name, handler, config) triple held inside a
// CompiledVariant. Config is Undefined when the variant's author never
// mentioned this validator.
type Processor struct {
	Name    string
	Handler Handler
	Config  any
}

// CompiledVariant contains exactly the set of registered validators at
// compile time — no more, no fewer (invariant 1). Order preserves
// registration order so the matcher evaluates validators deterministically
// within a variant.
type CompiledVariant struct {
	Order      []string
	Processors map[string]*Processor
}

// CollectionTable holds the ordered rule variants for every permission of
// one collection, keyed by permission name ("read", "add", ... or the
// reserved "$schema").
type CollectionTable struct {
	Permissions map[string][]*CompiledVariant
}

// Table is the compiled permission table for every collection. It is
// immutable once built; Engine swaps the whole pointer on load/add/set so
// in-flight validations always see a consistent snapshot.
type Table struct {
	Collections map[string]*CollectionTable
}

func newTable() *Table {
	return &Table{Collections: make(map[string]*CollectionTable)}
}

// clone returns a shallow copy: a fresh top-level map, sharing
// *CollectionTable pointers for every collection untouched by the
// mutation that triggered the clone. CollectionTables themselves are
// never mutated after compile, so sharing pointers is safe.
func (t *Table) clone() *Table {
	next := newTable()
	if t == nil {
		return next
	}
	for k, v := range t.Collections {
		next.Collections[k] = v
	}
	return next
}
