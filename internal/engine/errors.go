// Package engine provides the llama.cpp-backed LLM engine. The real
// implementation requires CGO and the 'llama' build tag; default builds get
// a stub that fails fast.
package engine

// Built reports whether this binary carries the real llama.cpp engine.
func Built() bool { return llamaBuilt }

// dependencyUnavailableError signals a missing runtime dependency (e.g. the
// llama.cpp build) so callers can distinguish it from a model problem.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed
// runtime dependency.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}
