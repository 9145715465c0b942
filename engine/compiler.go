package engine

// Compiler parses a user-supplied rule tree into a compiled permission
// table. It never retains partial state: a fatal error anywhere in a
// collection aborts that collection's compile without mutating the
// registry or any existing table.
type Compiler struct {
	registry *Registry
}

// NewCompiler builds a Compiler bound to registry. Validators registered
// on registry after this call are picked up by subsequent Compile calls,
// since Compiler always asks the registry for a fresh Names() snapshot.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{registry: registry}
}

// CompileTable compiles an entire rule source (collection -> action ->
// permission-config) into a fresh Table.
func (c *Compiler) CompileTable(source map[string]any) (*Table, error) {
	table := newTable()
	for collection, raw := range source {
		ct, err := c.CompileCollection(raw)
		if err != nil {
			return nil, newCompileError(BadShape, "collection %q: %v", collection, err)
		}
		table.Collections[collection] = ct
	}
	return table, nil
}

// CompileCollection compiles one collection's action -> permission-config
// mapping, including the reserved $schema pseudo-permission.
func (c *Compiler) CompileCollection(raw any) (*CollectionTable, error) {
	actions, ok := raw.(map[string]any)
	if !ok {
		return nil, newCompileError(BadShape, "collection rules must be an object")
	}
	ct := &CollectionTable{Permissions: make(map[string][]*CompiledVariant)}
	for key, val := range actions {
		permName := key
		source := val
		if key == permSchema {
			source = map[string]any{"data": val}
		}
		variants, err := c.compileVariants(source)
		if err != nil {
			return nil, newCompileError(BadShape, "%s: %v", key, err)
		}
		ct.Permissions[permName] = variants
	}
	return ct, nil
}

// compileVariants normalizes the algebraic permission-config shape
// (boolean | string | object | sequence) into a uniform sequence of
// compiled variants.
func (c *Compiler) compileVariants(raw any) ([]*CompiledVariant, error) {
	var seq []any
	switch v := raw.(type) {
	case bool:
		seq = []any{map[string]any{"condition": v}}
	case string:
		seq = []any{map[string]any{"condition": v}}
	case map[string]any:
		seq = []any{v}
	case []any:
		seq = v
	default:
		return nil, newCompileError(BadShape, "permission config must be a boolean, string, object, or sequence")
	}

	variants := make([]*CompiledVariant, 0, len(seq))
	for _, item := range seq {
		variantRaw, ok := item.(map[string]any)
		if !ok {
			return nil, newCompileError(BadShape, "rule variant must be an object")
		}
		variant, err := c.compileVariant(variantRaw)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

// compileVariant materializes a Processor for every registered validator,
// in registration order, then rejects any key in raw that does not name a
// registered validator.
func (c *Compiler) compileVariant(raw map[string]any) (*CompiledVariant, error) {
	names := c.registry.Names()
	processors := make(map[string]*Processor, len(names))

	for _, name := range names {
		handler, _ := c.registry.Lookup(name)
		proc := &Processor{Name: name, Handler: handler, Config: Undefined}
		if rawCfg, present := raw[name]; present {
			compiled, err := c.registry.prepareFor(name, rawCfg)
			if err != nil {
				return nil, err
			}
			proc.Config = compiled
		}
		processors[name] = proc
	}

	for key := range raw {
		if _, ok := processors[key]; !ok {
			return nil, newCompileError(UnknownValidator, "unknown validator %q", key)
		}
	}

	return &CompiledVariant{Order: names, Processors: processors}, nil
}
