package settings

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RuleEvent describes one evaluation for observers.
type RuleEvent struct {
	Engine   string
	Expr     string
	Domain   string
	Cached   bool
	Duration time.Duration
	Result   any
	Err      error
}

// RuleObserver receives an event after every evaluation.
type RuleObserver interface {
	ObserveRule(RuleEvent)
}

// RuleObserverFunc adapts a function to RuleObserver.
type RuleObserverFunc func(RuleEvent)

// ObserveRule implements RuleObserver.
func (f RuleObserverFunc) ObserveRule(event RuleEvent) {
	if f != nil {
		f(event)
	}
}

// WithRuleObserver reports every evaluation to observer.
func WithRuleObserver(observer RuleObserver) EngineOption {
	return func(cfg *engineConfig) {
		cfg.observer = observer
	}
}

// WithEvaluator selects the rule language. The default is expr.
func WithEvaluator(e Evaluator) EngineOption {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// rules is the engine's compiled-rule state, fixed at construction.
type rules struct {
	evaluator Evaluator
	env       RuleEnv
	// keyPrefix scopes cache keys to the evaluator and env.
	keyPrefix string
	cache     ProgramCache
	observer  RuleObserver
}

func newRules(tree *Tree, cfg engineConfig) (*rules, error) {
	env := RuleEnv{Layout: tree.Layout(), Functions: cfg.functions.Clone()}
	for _, name := range env.Functions.Names() {
		if _, clash := env.Layout[name]; clash {
			return nil, fmt.Errorf("%w: function %q shadows a setting group", ErrDuplicateName, name)
		}
	}
	evaluator := cfg.evaluator
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	return &rules{
		evaluator: evaluator,
		env:       env,
		keyPrefix: evaluator.Name() + "\x00" + env.fingerprint() + "\x00",
		cache:     cfg.programCache,
		observer:  cfg.observer,
	}, nil
}

// compile returns the rule for expr, from the cache when possible.
func (r *rules) compile(expr string) (Rule, bool, error) {
	name := r.evaluator.Name()
	if strings.TrimSpace(expr) == "" {
		return nil, false, ruleError(name, RuleStageCompile, expr, "", ErrEmptyRule)
	}
	key := r.keyPrefix + expr
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if rule, ok := cached.(Rule); ok {
				return rule, true, nil
			}
		}
	}
	rule, err := r.evaluator.Compile(r.env, expr)
	if err != nil {
		return nil, false, ruleError(name, RuleStageCompile, expr, "", err)
	}
	if r.cache != nil {
		r.cache.Set(key, rule)
	}
	return rule, false, nil
}

// CompileRule compiles expr against the tree's layout, so a rule reused across
// domains is checked once. References to unknown settings fail here for the
// expr and CEL languages.
func (e *Engine) CompileRule(expr string) (Rule, error) {
	rule, _, err := e.rules.compile(expr)
	return rule, err
}

// Evaluate runs expr against the settings snapshot of domain.
//
//	engine.Evaluate(ctx, "42", `welcome.channel != "" && !antiraid.nopfp`)
func (e *Engine) Evaluate(ctx context.Context, domain, expr string) (any, error) {
	snapshot, err := e.Snapshot(ctx, domain)
	if err != nil {
		return nil, err
	}
	return e.EvaluateWith(RuleContext{Domain: domain, Values: snapshot}, expr)
}

// Check evaluates a condition for domain; anything but a boolean result fails
// with ErrNotBoolean.
func (e *Engine) Check(ctx context.Context, domain, expr string) (bool, error) {
	value, err := e.Evaluate(ctx, domain, expr)
	if err != nil {
		return false, err
	}
	ok, isBool := value.(bool)
	if !isBool {
		return false, ruleError(e.rules.evaluator.Name(), RuleStageEval, expr, domain,
			fmt.Errorf("%w: got %T", ErrNotBoolean, value))
	}
	return ok, nil
}

// EvaluateWith runs expr against caller-supplied values. Missing groups are
// bound as empty maps and Now defaults to the current time.
func (e *Engine) EvaluateWith(in RuleContext, expr string) (any, error) {
	r := e.rules
	in = in.withDefaults(r.env.Layout)
	start := time.Now()
	rule, cached, err := r.compile(expr)
	var value any
	if err != nil {
		err = ruleError(r.evaluator.Name(), RuleStageCompile, expr, in.Domain, err)
	} else {
		value, err = rule.Eval(in)
		err = ruleError(r.evaluator.Name(), RuleStageEval, expr, in.Domain, err)
	}
	if r.observer != nil {
		r.observer.ObserveRule(RuleEvent{
			Engine:   r.evaluator.Name(),
			Expr:     expr,
			Domain:   in.Domain,
			Cached:   cached,
			Duration: time.Since(start),
			Result:   value,
			Err:      err,
		})
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}
