//go:build js_eval

package settings

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct{}

// NewJSEvaluator returns the goja evaluator. JavaScript is untyped, so unknown
// items evaluate to undefined instead of failing at compile time.
func NewJSEvaluator() Evaluator { return jsEvaluator{} }

func (jsEvaluator) Name() string { return "js" }

func (jsEvaluator) Compile(env RuleEnv, expr string) (Rule, error) {
	program, err := goja.Compile("rule", fmt.Sprintf("(function(){ return (%s); })()", expr), true)
	if err != nil {
		return nil, err
	}
	return jsRule{program: program, functions: env.Functions}, nil
}

type jsRule struct {
	program   *goja.Program
	functions *FunctionRegistry
}

// Eval runs on a fresh runtime; goja runtimes are not safe for concurrent use.
func (r jsRule) Eval(in RuleContext) (any, error) {
	vm := goja.New()
	for name, value := range in.Bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	for name, fn := range r.functions.All() {
		if err := vm.Set(name, func(args ...any) (any, error) { return fn(args...) }); err != nil {
			return nil, err
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}
