package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Injector is a pure function of a request contributing bindings to the
// injection map the sandbox sees. Injectors run before validate and never
// touch the accessor — if a rule needs I/O to decide, it belongs in a
// validator, not an injector.
type Injector func(ctx context.Context, req *Request) map[string]any

// Engine combines the Rule Matcher and the Accessor/Store into the single
// execute(request) call the Entry Facade specifies. The compiled table and
// the registry are mutated only by Load/Add/Set/Register; a mutex
// serializes those writers while readers (Validate/Execute) always observe
// a consistent snapshot via the atomic table pointer.
type Engine struct {
	registry *Registry
	compiler *Compiler
	table    atomic.Pointer[Table]

	writeMu sync.Mutex

	accessor  Accessor
	store     Store
	injectors []Injector
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithInjector appends an injector to the engine's injector chain.
func WithInjector(i Injector) EngineOption {
	return func(e *Engine) { e.injectors = append(e.injectors, i) }
}

// NewEngine constructs an Engine. store also satisfies Accessor and
// serves exists/unique lookups during validation.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	registry := NewRegistry()
	e := &Engine{
		registry: registry,
		compiler: NewCompiler(registry),
		accessor: store,
		store:    store,
	}
	e.table.Store(newTable())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterValidator extends the registry with a custom validator. It must
// not be called concurrently with Validate/Execute on a live engine that
// relies on the new validator already appearing in freshly compiled
// variants — compile (Load/Add/Set) after registering.
func (e *Engine) RegisterValidator(name string, handler Handler, opts ...RegisterOption) error {
	return e.registry.Register(name, handler, opts...)
}

// Load replaces the entire compiled table with a fresh compile of source.
// load(R); load(R') on a fresh engine yields the same table as starting
// from R' directly.
func (e *Engine) Load(source map[string]any) error {
	table, err := e.compiler.CompileTable(source)
	if err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.table.Store(table)
	return nil
}

// Add compiles and inserts a single collection's rules. It fails with a
// CollectionExists CompileError if the collection is already present.
func (e *Engine) Add(collection string, raw any) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	current := e.table.Load()
	if _, exists := current.Collections[collection]; exists {
		return newCompileError(CollectionExists, "collection %q already exists", collection)
	}
	ct, err := e.compiler.CompileCollection(raw)
	if err != nil {
		return err
	}
	next := current.clone()
	next.Collections[collection] = ct
	e.table.Store(next)
	return nil
}

// Set compiles and installs a single collection's rules, replacing any
// existing compiled rules for that collection.
func (e *Engine) Set(collection string, raw any) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	ct, err := e.compiler.CompileCollection(raw)
	if err != nil {
		return err
	}
	current := e.table.Load()
	next := current.clone()
	next.Collections[collection] = ct
	e.table.Store(next)
	return nil
}

// Schema compiles and stores the reserved $schema pseudo-permission for
// collection, wrapping raw as {data: raw} per the compiler contract. A
// "$schema" key in a collection's rule source passed to Load/Add/Set is
// compiled the same way. Validate never selects $schema for any action,
// and no Engine method evaluates a request against it — see the design
// note on $schema in DESIGN.md.
func (e *Engine) Schema(collection string, raw any) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	variants, err := e.compiler.compileVariants(map[string]any{"data": raw})
	if err != nil {
		return err
	}
	current := e.table.Load()
	next := current.clone()
	ct, ok := next.Collections[collection]
	if !ok {
		ct = &CollectionTable{Permissions: make(map[string][]*CompiledVariant)}
		next.Collections[collection] = ct
	} else {
		cloned := &CollectionTable{Permissions: make(map[string][]*CompiledVariant, len(ct.Permissions))}
		for k, v := range ct.Permissions {
			cloned.Permissions[k] = v
		}
		next.Collections[collection] = cloned
		ct = cloned
	}
	ct.Permissions[permSchema] = variants
	e.table.Store(next)
	return nil
}

func (e *Engine) resolveInjections(ctx context.Context, req *Request) map[string]any {
	injections := make(map[string]any)
	for _, inject := range e.injectors {
		for k, v := range inject(ctx, req) {
			injections[k] = v
		}
	}
	return injections
}

// Validate checks request against the compiled table, merging extra into
// the resolved injector bindings (extra wins on conflict). A non-nil error
// is a fault (accessor failure or cancellation), not a denial.
func (e *Engine) Validate(ctx context.Context, req *Request, extra map[string]any) (*ValidateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	injections := e.resolveInjections(ctx, req)
	for k, v := range extra {
		injections[k] = v
	}
	vctx := &ValidatorContext{
		Engine:     e,
		Request:    req,
		Injections: injections,
		Accessor:   e.accessor,
	}
	table := e.table.Load()
	return validate(ctx, table, req, vctx)
}

// Execute is the Entry Facade's single call: validate, then forward to the
// store unchanged on a match, or fail with PermissionDeniedError.
func (e *Engine) Execute(ctx context.Context, req *Request) (any, error) {
	result, err := e.Validate(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if result.Denied() {
		return nil, &PermissionDeniedError{Errors: result.Errors}
	}
	return e.store.Execute(ctx, req)
}
