package settings

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Names bound in every rule next to the setting groups. A group that uses one
// of these names is shadowed by it.
const (
	RuleVarDomain = "domain"
	RuleVarNow    = "now"
	RuleVarArgs   = "args"
)

func isRuleVar(name string) bool {
	return name == RuleVarDomain || name == RuleVarNow || name == RuleVarArgs
}

// Layout lists the settings a rule can reference, group -> item -> type.
// Actions hold no value and are not part of it.
type Layout map[string]map[string]Type

// Layout derives the rule layout from the tree's settings.
func (t *Tree) Layout() Layout {
	layout := Layout{}
	for group, s := range t.Settings() {
		items, ok := layout[group]
		if !ok {
			items = map[string]Type{}
			layout[group] = items
		}
		items[s.Name] = s.Kind.Type()
	}
	return layout
}

// Lookup returns the type of group/item.
func (l Layout) Lookup(group, item string) (Type, bool) {
	typ, ok := l[group][item]
	return typ, ok
}

// Groups returns the group names in sorted order, without the ones shadowed by
// rule variables.
func (l Layout) Groups() []string {
	groups := make([]string, 0, len(l))
	for group := range l {
		if !isRuleVar(group) {
			groups = append(groups, group)
		}
	}
	slices.Sort(groups)
	return groups
}

// check fails with ErrNotFound when group is a setting group without item.
func (l Layout) check(group, item string) error {
	if _, isGroup := l[group]; !isGroup || isRuleVar(group) {
		return nil
	}
	if _, ok := l.Lookup(group, item); !ok {
		return fmt.Errorf("%w: setting %s/%s", ErrNotFound, group, item)
	}
	return nil
}

// RuleEnv is what an expression is compiled against.
type RuleEnv struct {
	Layout    Layout
	Functions *FunctionRegistry
}

// fingerprint identifies the env in program cache keys, so engines over
// different trees can share one cache.
func (env RuleEnv) fingerprint() string {
	var b strings.Builder
	for _, group := range slices.Sorted(maps.Keys(env.Layout)) {
		items := env.Layout[group]
		for _, item := range slices.Sorted(maps.Keys(items)) {
			fmt.Fprintf(&b, "%s/%s:%s;", group, item, items[item])
		}
	}
	b.WriteString(strings.Join(env.Functions.Names(), ","))
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// RuleContext carries the inputs of one evaluation.
type RuleContext struct {
	Domain string
	// Values holds decoded settings as group -> item -> value, as returned by
	// Engine.Snapshot. Channel references are plain strings.
	Values map[string]map[string]any
	// Now defaults to the time of evaluation.
	Now time.Time
	// Args carries caller extras, such as the member a rule is checked for.
	Args map[string]any
}

func (in RuleContext) withDefaults(layout Layout) RuleContext {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.Args == nil {
		in.Args = map[string]any{}
	}
	values := make(map[string]map[string]any, len(layout))
	maps.Copy(values, in.Values)
	for group := range layout {
		if values[group] == nil {
			values[group] = map[string]any{}
		}
	}
	in.Values = values
	return in
}

// Bindings returns the top-level variables of a rule: one map per group plus
// domain, now and args.
func (in RuleContext) Bindings() map[string]any {
	vars := make(map[string]any, len(in.Values)+3)
	for group, items := range in.Values {
		vars[group] = items
	}
	vars[RuleVarDomain] = in.Domain
	vars[RuleVarNow] = in.Now
	vars[RuleVarArgs] = in.Args
	return vars
}

// Evaluator compiles expressions of one rule language.
type Evaluator interface {
	// Name identifies the language in errors, logs and cache keys.
	Name() string
	// Compile checks expr against env and returns a reusable rule.
	Compile(env RuleEnv, expr string) (Rule, error)
}

// Rule is a compiled expression. Eval is safe for concurrent use.
type Rule interface {
	Eval(in RuleContext) (any, error)
}

// ProgramCache stores compiled rules. Keys include the evaluator name and a
// fingerprint of the tree layout.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache caches compiled rules across evaluations.
func WithProgramCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.programCache = cache
	}
}
