package engine

import "fmt"

// CompileErrorKind classifies a fatal failure raised while compiling a
// rule source into a permission table.
type CompileErrorKind int

const (
	UnknownValidator CompileErrorKind = iota
	UnknownRule
	DuplicateValidator
	InvalidHandler
	CollectionExists
	BadShape
)

func (k CompileErrorKind) String() string {
	switch k {
	case UnknownValidator:
		return "UnknownValidator"
	case UnknownRule:
		return "UnknownRule"
	case DuplicateValidator:
		return "DuplicateValidator"
	case InvalidHandler:
		return "InvalidHandler"
	case CollectionExists:
		return "CollectionExists"
	case BadShape:
		return "BadShape"
	default:
		return "CompileError"
	}
}

// CompileError is fatal to the caller of load/add/set/register. No partial
// state is retained by the engine when one is returned.
type CompileError struct {
	Kind CompileErrorKind
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newCompileError(kind CompileErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ExpressionError wraps a sandbox parse/eval failure. Callers of the
// sandbox surface it as a non-match, never as a fault.
type ExpressionError struct {
	Source string
	Err    error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Source, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// AccessorError wraps a failure returned by the Accessor Port. It is a
// fault, propagated to the caller of validate, never turned into a
// non-match.
type AccessorError struct {
	Op  string
	Err error
}

func (e *AccessorError) Error() string {
	return fmt.Sprintf("accessor %s: %v", e.Op, e.Err)
}

func (e *AccessorError) Unwrap() error { return e.Err }

// PermissionDeniedError is the user-visible denial raised by the Entry
// Facade when no rule variant matched.
type PermissionDeniedError struct {
	Errors []MatchError
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %d error(s)", len(e.Errors))
}
