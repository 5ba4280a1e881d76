package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRule indicates a blank expression.
	ErrEmptyRule = errors.New("settings: rule expression is empty")
	// ErrNotBoolean indicates a condition that produced a non-boolean value.
	ErrNotBoolean = errors.New("settings: rule result is not a boolean")
)

// RuleStage names the step a rule failed in.
type RuleStage string

const (
	RuleStageCompile RuleStage = "compile"
	RuleStageEval    RuleStage = "eval"
)

// RuleError reports a rule that failed to compile or evaluate.
type RuleError struct {
	Engine string
	Stage  RuleStage
	Expr   string
	// Domain is empty when a rule is compiled outside an evaluation.
	Domain string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("settings: %s rule %q", e.Engine, e.Expr)
	if e.Domain != "" {
		msg += " in domain " + e.Domain
	}
	return fmt.Sprintf("%s: %s: %v", msg, e.Stage, e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ruleError wraps err unless it already is a RuleError, in which case only the
// missing fields are filled in.
func ruleError(engine string, stage RuleStage, expr, domain string, err error) error {
	if err == nil {
		return nil
	}
	var existing *RuleError
	if errors.As(err, &existing) {
		if existing.Engine == "" {
			existing.Engine = engine
		}
		if existing.Stage == "" {
			existing.Stage = stage
		}
		if existing.Expr == "" {
			existing.Expr = expr
		}
		if existing.Domain == "" {
			existing.Domain = domain
		}
		return existing
	}
	return &RuleError{Engine: engine, Stage: stage, Expr: expr, Domain: domain, Err: err}
}
