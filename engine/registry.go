package engine

import (
	"context"
	"sync"
)

// undefinedMarker is the distinct "not configured" config value. Handlers
// compare against Undefined instead of treating a nil/false config as
// absence, since nil and false are themselves legitimate explicit configs
// for some validators (condition: false, for instance).
type undefinedMarker struct{}

// Undefined is the config value a Processor carries when its variant did
// not mention that validator. Handlers must treat it as a no-op.
var Undefined any = undefinedMarker{}

func isUndefined(v any) bool {
	_, ok := v.(undefinedMarker)
	return ok
}

// ValidatorContext is the per-call context every built-in and registered
// validator handler receives alongside its config.
type ValidatorContext struct {
	Engine     *Engine
	Request    *Request
	Injections map[string]any
	Accessor   Accessor
	PermName   string
}

// Handler is a pure asynchronous predicate over (config, context). A
// non-nil error is a fault. A non-empty string is a non-match. Both empty
// means the validator matched (or had nothing to check).
type Handler func(ctx context.Context, config any, vctx *ValidatorContext) (string, error)

// Preparer compiles a raw rule-source config (as decoded from JSON/YAML)
// into whatever shape the Handler wants to see at match time. It runs once
// per variant at compile time, so shape errors surface at load/add/set,
// never at request time.
type Preparer func(raw any) (any, error)

type registration struct {
	name    string
	handler Handler
	prepare Preparer
}

// RegisterOption configures an optional part of a validator registration.
type RegisterOption func(*registration)

// WithPreparer attaches a compile-time config preparer to a validator.
func WithPreparer(p Preparer) RegisterOption {
	return func(r *registration) { r.prepare = p }
}

// Registry maps validator name to handler. It is seeded with the built-ins
// and is extensible at load time via Register.
type Registry struct {
	mu    sync.RWMutex
	order []string
	regs  map[string]*registration
}

// NewRegistry constructs a Registry seeded with the built-in validators in
// their fixed registration order: condition, data, query, multi.
func NewRegistry() *Registry {
	r := &Registry{regs: make(map[string]*registration)}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register("condition", conditionHandler))
	must(r.Register("data", dataHandler, WithPreparer(prepareDataConfig)))
	must(r.Register("query", queryHandler, WithPreparer(prepareQueryConfig)))
	must(r.Register("multi", multiHandler))
}

// Register adds a named validator. name must be non-empty and unique;
// handler must be non-nil.
func (r *Registry) Register(name string, handler Handler, opts ...RegisterOption) error {
	if name == "" {
		return newCompileError(InvalidHandler, "validator name must not be empty")
	}
	if handler == nil {
		return newCompileError(InvalidHandler, "validator %q handler must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.regs[name]; exists {
		return newCompileError(DuplicateValidator, "validator %q already registered", name)
	}
	reg := &registration{name: name, handler: handler}
	for _, opt := range opts {
		opt(reg)
	}
	r.regs[name] = reg
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the handler registered under name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[name]
	if !ok {
		return nil, false
	}
	return reg.handler, true
}

// Names returns a snapshot of registered validator names in registration
// order. Callers own the returned slice.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) registration(name string) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[name]
	return reg, ok
}

func (r *Registry) prepareFor(name string, raw any) (any, error) {
	reg, ok := r.registration(name)
	if !ok {
		return nil, newCompileError(UnknownValidator, "unknown validator %q", name)
	}
	if reg.prepare == nil {
		return raw, nil
	}
	return reg.prepare(raw)
}
