package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mldkyt/go-settings/pkg/activity"
)

// ResultKind tags the outcome of a dispatch.
type ResultKind string

const (
	ResultCurrent   ResultKind = "current"
	ResultConfirmed ResultKind = "confirmed"
	ResultRejected  ResultKind = "rejected"
	ResultPerformed ResultKind = "performed"
)

// Invocation is one request from a front-end. Actor and Channels are passed
// explicitly per request; the engine holds no per-caller state.
type Invocation struct {
	Domain    string
	Group     string
	Item      string
	Candidate Candidate
	// Reset removes the stored value so the default applies again.
	Reset bool
	// Args carries action parameters. Ignored for settings.
	Args map[string]Candidate
	// Authorized is the front-end's verdict on the actor's elevated permission.
	Authorized bool
	Actor      string
	Channels   Channels
}

// Result is the user-displayable outcome of Dispatch.
type Result struct {
	Kind         ResultKind
	Group        string
	Item         string
	Description  string
	DisplayValue string
	// Value is the stored form behind DisplayValue.
	Value  string
	Reason Reason
	Detail string
	Err    error
}

// Rejected reports whether the invocation failed.
func (r Result) Rejected() bool { return r.Kind == ResultRejected }

// ActionRequest is passed to an ActionHandler after authorization and
// parameter checks have passed.
type ActionRequest struct {
	Domain   string
	Group    string
	Action   *Action
	Args     map[string]Candidate
	Actor    string
	Channels Channels
}

// ActionHandler performs an action's side effect and returns a message for
// the invoking user.
type ActionHandler func(ctx context.Context, req ActionRequest) (string, error)

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	hooks          activity.Hooks
	channel        string
	handlers       map[string]ActionHandler
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	observer       RuleObserver
	hookErrHandler func(error)
	errs           []error
}

// WithActivityHooks attaches hooks notified on every dispatch outcome. Nil
// entries are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) EngineOption {
	return func(cfg *engineConfig) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.hooks = append(cfg.hooks, hook)
			}
		}
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) EngineOption {
	return func(cfg *engineConfig) {
		cfg.channel = channel
	}
}

// WithHookErrorHandler receives errors returned by activity hooks. Hook
// failures never change a dispatch result.
func WithHookErrorHandler(fn func(error)) EngineOption {
	return func(cfg *engineConfig) {
		cfg.hookErrHandler = fn
	}
}

// WithActionHandler registers fn for the action at group/name.
func WithActionHandler(group, name string, fn ActionHandler) EngineOption {
	return func(cfg *engineConfig) {
		if fn == nil {
			return
		}
		if cfg.handlers == nil {
			cfg.handlers = map[string]ActionHandler{}
		}
		cfg.handlers[group+"/"+name] = fn
	}
}

// Engine executes invocations against a tree and a store. It is safe for
// concurrent use; writes racing on one key are last-write-wins at the store.
type Engine struct {
	tree     *Tree
	store    Store
	emitter  *activity.Emitter
	handlers map[string]ActionHandler
	cfg      engineConfig
	rules    *rules
}

// NewEngine binds tree to store.
func NewEngine(tree *Tree, store Store, opts ...EngineOption) (*Engine, error) {
	if tree == nil {
		return nil, errors.New("settings: engine requires a tree")
	}
	if store == nil {
		return nil, errors.New("settings: engine requires a store")
	}
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}
	for path := range cfg.handlers {
		group, name, _ := strings.Cut(path, "/")
		item, err := tree.Resolve(group, name)
		if err != nil {
			return nil, fmt.Errorf("settings: handler for %s: %w", path, err)
		}
		if _, ok := item.(*Action); !ok {
			return nil, fmt.Errorf("settings: handler for %s: %w: not an action", path, ErrNotFound)
		}
	}
	rules, err := newRules(tree, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		tree:     tree,
		store:    store,
		emitter:  activity.NewEmitter(cfg.hooks, activity.Config{Enabled: true, Channel: cfg.channel}),
		handlers: cfg.handlers,
		cfg:      cfg,
		rules:    rules,
	}, nil
}

// Tree returns the command tree the engine dispatches against.
func (e *Engine) Tree() *Tree { return e.tree }

// Dispatch runs one invocation to completion and folds every runtime failure
// into a rejected Result. At most one store mutation happens, and only after
// validation succeeds.
func (e *Engine) Dispatch(ctx context.Context, inv Invocation) (result Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("settings: dispatch panic: %v", r)
			result = rejected(inv, ReasonInternal, "Something went wrong, try again later", err)
		}
	}()

	input := activity.SettingEventInput{
		ActorID:  inv.Actor,
		DomainID: inv.Domain,
		Group:    inv.Group,
		Item:     inv.Item,
	}

	if !inv.Authorized {
		input.ObjectType = activity.ObjectTypeSelector
		input.Reason = string(ReasonUnauthorized)
		e.emit(ctx, activity.VerbUnauthorized, input)
		return rejected(inv, ReasonUnauthorized, "You lack permission to manage settings", ErrUnauthorized)
	}

	item, err := e.tree.Resolve(inv.Group, inv.Item)
	if err != nil {
		input.ObjectType = activity.ObjectTypeSelector
		input.Reason = string(ReasonNotFound)
		e.emit(ctx, activity.VerbResolveFailed, input)
		return rejected(inv, ReasonNotFound, fmt.Sprintf("Unknown setting %s %s", inv.Group, inv.Item), err)
	}

	switch typed := item.(type) {
	case *Setting:
		input.ObjectType = activity.ObjectTypeSetting
		input.Key = typed.Key
		e.emit(ctx, activity.VerbResolved, input)
		switch {
		case inv.Reset && inv.Candidate.IsSet():
			input.Reason = string(ReasonInvalidInput)
			input.Detail = "cannot reset and set in one invocation"
			e.emit(ctx, activity.VerbRejected, input)
			return rejected(inv, ReasonInvalidInput, "Provide a new value or reset, not both",
				fmt.Errorf("%w: reset with candidate", ErrInvalidInput))
		case inv.Reset:
			return e.reset(ctx, inv, typed, input)
		case inv.Candidate.IsSet():
			return e.write(ctx, inv, typed, input)
		default:
			return e.read(ctx, inv, typed, input)
		}
	case *Action:
		input.ObjectType = activity.ObjectTypeAction
		e.emit(ctx, activity.VerbResolved, input)
		return e.perform(ctx, inv, typed, input)
	default:
		return rejected(inv, ReasonInternal, "Something went wrong, try again later",
			fmt.Errorf("settings: unsupported item %T", item))
	}
}

func (e *Engine) read(ctx context.Context, inv Invocation, s *Setting, input activity.SettingEventInput) Result {
	stored, ok, err := e.store.Get(ctx, inv.Domain, s.Key)
	if err != nil {
		err = persistenceError("get", inv.Domain, s.Key, err)
		input.Reason = string(ReasonPersistence)
		e.emit(ctx, activity.VerbReadFailed, input)
		return rejected(inv, ReasonPersistence, "The settings store is unavailable, try again later", err)
	}
	if !ok {
		stored = s.Default
	}
	input.Value = stored
	e.emit(ctx, activity.VerbRead, input)
	return Result{
		Kind:         ResultCurrent,
		Group:        inv.Group,
		Item:         inv.Item,
		Description:  s.Description,
		DisplayValue: s.Format(stored, inv.Channels),
		Value:        stored,
	}
}

func (e *Engine) write(ctx context.Context, inv Invocation, s *Setting, input activity.SettingEventInput) Result {
	input.Candidate = inv.Candidate.String()
	value, err := s.Parse(inv.Candidate)
	if err != nil {
		reason, detail := describeRejection(err)
		input.Reason = string(reason)
		input.Detail = detail
		e.emit(ctx, activity.VerbRejected, input)
		return rejected(inv, reason, detail, err)
	}
	input.Value = value
	e.emit(ctx, activity.VerbValidated, input)

	if err := e.store.Set(ctx, inv.Domain, s.Key, value); err != nil {
		err = persistenceError("set", inv.Domain, s.Key, err)
		input.Reason = string(ReasonPersistence)
		e.emit(ctx, activity.VerbPersistFailed, input)
		return rejected(inv, ReasonPersistence, "The settings store is unavailable, try again later", err)
	}
	e.emit(ctx, activity.VerbUpdated, input)
	return Result{
		Kind:         ResultConfirmed,
		Group:        inv.Group,
		Item:         inv.Item,
		Description:  s.Description,
		DisplayValue: s.Format(value, inv.Channels),
		Value:        value,
	}
}

func (e *Engine) reset(ctx context.Context, inv Invocation, s *Setting, input activity.SettingEventInput) Result {
	if err := e.store.Delete(ctx, inv.Domain, s.Key); err != nil {
		err = persistenceError("delete", inv.Domain, s.Key, err)
		input.Reason = string(ReasonPersistence)
		e.emit(ctx, activity.VerbPersistFailed, input)
		return rejected(inv, ReasonPersistence, "The settings store is unavailable, try again later", err)
	}
	input.Value = s.Default
	e.emit(ctx, activity.VerbReset, input)
	return Result{
		Kind:         ResultConfirmed,
		Group:        inv.Group,
		Item:         inv.Item,
		Description:  s.Description,
		DisplayValue: s.Format(s.Default, inv.Channels),
		Value:        s.Default,
	}
}

func (e *Engine) perform(ctx context.Context, inv Invocation, a *Action, input activity.SettingEventInput) Result {
	fail := func(reason Reason, detail string, err error) Result {
		input.Reason = string(reason)
		input.Detail = detail
		e.emit(ctx, activity.VerbActionFailed, input)
		return rejected(inv, reason, detail, err)
	}

	if inv.Reset || inv.Candidate.IsSet() {
		return fail(ReasonInvalidInput, fmt.Sprintf("%s takes parameters, not a value", a.Name),
			fmt.Errorf("%w: value passed to action %s", ErrInvalidInput, a.Name))
	}
	if missing := missingParams(a, inv.Args); len(missing) > 0 {
		return fail(ReasonInvalidInput, "Missing required parameter: "+strings.Join(missing, ", "),
			fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", ")))
	}
	if unknown := unknownParams(a, inv.Args); len(unknown) > 0 {
		return fail(ReasonInvalidInput, "Unknown parameter: "+strings.Join(unknown, ", "),
			fmt.Errorf("%w: unknown %s", ErrInvalidInput, strings.Join(unknown, ", ")))
	}

	handler := e.handlers[inv.Group+"/"+a.Name]
	if handler == nil {
		return fail(ReasonUnhandled, fmt.Sprintf("%s is not available right now", a.Name),
			fmt.Errorf("%w: %s/%s", ErrUnhandled, inv.Group, a.Name))
	}

	message, err := handler(ctx, ActionRequest{
		Domain:   inv.Domain,
		Group:    inv.Group,
		Action:   a,
		Args:     cloneArgs(inv.Args),
		Actor:    inv.Actor,
		Channels: inv.Channels,
	})
	if err != nil {
		reason, detail := describeRejection(err)
		return fail(reason, detail, err)
	}
	e.emit(ctx, activity.VerbActionDone, input)
	return Result{
		Kind:         ResultPerformed,
		Group:        inv.Group,
		Item:         inv.Item,
		Description:  a.Description,
		DisplayValue: message,
	}
}

func missingParams(a *Action, args map[string]Candidate) []string {
	var missing []string
	for _, param := range a.Params {
		if !param.Required {
			continue
		}
		if value, ok := args[param.Name]; !ok || !value.IsSet() {
			missing = append(missing, param.Name)
		}
	}
	return missing
}

func unknownParams(a *Action, args map[string]Candidate) []string {
	var unknown []string
	for name := range args {
		if !a.hasParam(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func (a *Action) hasParam(name string) bool {
	for _, param := range a.Params {
		if param.Name == name {
			return true
		}
	}
	return false
}

func cloneArgs(args map[string]Candidate) map[string]Candidate {
	out := make(map[string]Candidate, len(args))
	for name, value := range args {
		out[name] = value
	}
	return out
}

// describeRejection derives the reason and user-facing detail for err.
func describeRejection(err error) (Reason, string) {
	reason := ReasonOf(err)
	var validation *ValidationError
	if errors.As(err, &validation) && validation.Detail != "" {
		return reason, validation.Detail
	}
	switch reason {
	case ReasonPersistence:
		return reason, "The settings store is unavailable, try again later"
	case ReasonInternal:
		return reason, "Something went wrong, try again later"
	default:
		return reason, err.Error()
	}
}

func rejected(inv Invocation, reason Reason, detail string, err error) Result {
	return Result{
		Kind:   ResultRejected,
		Group:  inv.Group,
		Item:   inv.Item,
		Reason: reason,
		Detail: detail,
		Err:    err,
	}
}

func (e *Engine) emit(ctx context.Context, verb string, input activity.SettingEventInput) {
	if !e.emitter.Enabled() {
		return
	}
	if err := e.emitter.Emit(ctx, activity.BuildSettingEvent(verb, input)); err != nil && e.cfg.hookErrHandler != nil {
		e.cfg.hookErrHandler(err)
	}
}
