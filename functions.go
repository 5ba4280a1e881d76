package settings

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"
	"unicode"
)

// Function is a host function callable from rules, such as a lookup of the
// member a rule is checked for.
type Function func(args ...any) (any, error)

// FunctionRegistry holds rule functions by name. Names are case-sensitive
// identifiers. The zero value is ready to use; a nil registry is empty.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Names must be identifiers, must not be a rule
// variable and may be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if !isIdentifier(name) {
		return fmt.Errorf("%w: function name %q is not an identifier", ErrInvalidInput, name)
	}
	if isRuleVar(name) {
		return fmt.Errorf("%w: function %q shadows a rule variable", ErrDuplicateName, name)
	}
	if fn == nil {
		return fmt.Errorf("%w: function %q is nil", ErrInvalidInput, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("%w: function %q", ErrDuplicateName, name)
	}
	r.functions[name] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.functions))
}

// All yields every function in name order. It iterates over a copy, so
// functions registered meanwhile are not seen.
func (r *FunctionRegistry) All() iter.Seq2[string, Function] {
	snapshot := r.Clone()
	return func(yield func(string, Function) bool) {
		if snapshot == nil {
			return
		}
		for _, name := range snapshot.Names() {
			if !yield(name, snapshot.functions[name]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{functions: maps.Clone(r.functions)}
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// WithFunctionRegistry exposes the registry's functions to rules.
func WithFunctionRegistry(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		for name, fn := range registry.All() {
			if err := cfg.functions.Register(name, fn); err != nil {
				cfg.errs = append(cfg.errs, err)
			}
		}
	}
}

// WithCustomFunction exposes fn to rules as name. An invalid or duplicate name
// fails NewEngine.
func WithCustomFunction(name string, fn Function) EngineOption {
	return func(cfg *engineConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
