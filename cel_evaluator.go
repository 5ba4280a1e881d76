package settings

import (
	"errors"
	"fmt"

	celgo "github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the overloads declared for host functions.
const celMaxArity = 4

type celEvaluator struct{}

// NewCELEvaluator returns the cel-go evaluator. Groups are declared as
// map(string, dyn); references to unknown items are rejected after checking.
func NewCELEvaluator() Evaluator { return celEvaluator{} }

func (celEvaluator) Name() string { return "cel" }

func (celEvaluator) Compile(env RuleEnv, expr string) (Rule, error) {
	celEnv, err := celgo.NewEnv(celOptions(env)...)
	if err != nil {
		return nil, err
	}
	ast, issues := celEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if err := checkCELSelectors(env.Layout, ast); err != nil {
		return nil, err
	}
	program, err := celEnv.Program(ast)
	if err != nil {
		return nil, err
	}
	return celRule{program: program}, nil
}

func celOptions(env RuleEnv) []celgo.EnvOption {
	opts := []celgo.EnvOption{
		celgo.Variable(RuleVarDomain, celgo.StringType),
		celgo.Variable(RuleVarNow, celgo.TimestampType),
		celgo.Variable(RuleVarArgs, celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, group := range env.Layout.Groups() {
		opts = append(opts, celgo.Variable(group, celgo.MapType(celgo.StringType, celgo.DynType)))
	}
	for name, fn := range env.Functions.All() {
		var overloads []celgo.FunctionOpt
		for arity := 0; arity <= celMaxArity; arity++ {
			params := make([]*celgo.Type, arity)
			for i := range params {
				params[i] = celgo.DynType
			}
			overloads = append(overloads, celgo.Overload(fmt.Sprintf("%s_dyn_%d", name, arity),
				params, celgo.DynType, celgo.FunctionBinding(celBinding(fn))))
		}
		opts = append(opts, celgo.Function(name, overloads...))
	}
	return opts
}

func celBinding(fn Function) func(args ...ref.Val) ref.Val {
	return func(args ...ref.Val) ref.Val {
		native := make([]any, len(args))
		for i, arg := range args {
			native[i] = arg.Value()
		}
		result, err := fn(native...)
		if err != nil {
			return types.WrapErr(err)
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

// checkCELSelectors rejects group.item and group["item"] where the group has
// no such item.
func checkCELSelectors(layout Layout, ast *celgo.Ast) error {
	var errs []error
	celast.PostOrderVisit(ast.NativeRep().Expr(), celast.NewExprVisitor(func(e celast.Expr) {
		switch e.Kind() {
		case celast.SelectKind:
			sel := e.AsSelect()
			if sel.Operand().Kind() == celast.IdentKind {
				errs = append(errs, layout.check(sel.Operand().AsIdent(), sel.FieldName()))
			}
		case celast.CallKind:
			call := e.AsCall()
			if call.FunctionName() != operators.Index || len(call.Args()) != 2 {
				return
			}
			operand, key := call.Args()[0], call.Args()[1]
			if operand.Kind() != celast.IdentKind || key.Kind() != celast.LiteralKind {
				return
			}
			if item, ok := key.AsLiteral().Value().(string); ok {
				errs = append(errs, layout.check(operand.AsIdent(), item))
			}
		}
	}))
	return errors.Join(errs...)
}

type celRule struct {
	program celgo.Program
}

func (r celRule) Eval(in RuleContext) (any, error) {
	out, _, err := r.program.Eval(in.Bindings())
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}
