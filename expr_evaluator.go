package settings

import (
	"time"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/types"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprEvaluator struct{}

// NewExprEvaluator returns the expr-lang evaluator. Groups are typed maps, so
// a misspelled item fails at compile time. Hyphenated items use index syntax,
// as in chatsummary["top-users"].
func NewExprEvaluator() Evaluator { return exprEvaluator{} }

func (exprEvaluator) Name() string { return "expr" }

func (exprEvaluator) Compile(env RuleEnv, expr string) (Rule, error) {
	options := []exprlang.Option{exprlang.Env(exprEnv(env.Layout))}
	for name, fn := range env.Functions.All() {
		options = append(options, exprlang.Function(name, func(params ...any) (any, error) {
			return fn(params...)
		}))
	}
	program, err := exprlang.Compile(expr, options...)
	if err != nil {
		return nil, err
	}
	return exprRule{program: program}, nil
}

func exprEnv(layout Layout) types.Map {
	env := types.Map{}
	for _, group := range layout.Groups() {
		fields := types.Map{}
		for item, typ := range layout[group] {
			fields[item] = exprType(typ)
		}
		env[group] = fields
	}
	env[RuleVarDomain] = types.String
	env[RuleVarNow] = types.TypeOf(time.Time{})
	env[RuleVarArgs] = types.Map{types.Extra: types.Any}
	return env
}

func exprType(typ Type) types.Type {
	switch typ {
	case TypeInteger:
		return types.Int64
	case TypeToggle:
		return types.Bool
	default:
		return types.String
	}
}

type exprRule struct {
	program *exprvm.Program
}

func (r exprRule) Eval(in RuleContext) (any, error) {
	return exprlang.Run(r.program, in.Bindings())
}
