package settings

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/mldkyt/go-settings/pkg/activity"
)

// spyStore is an in-memory Store that counts calls and can fail on demand.
type spyStore struct {
	mu      sync.Mutex
	values  map[string]string
	gets    int
	sets    int
	deletes int
	failGet error
	failSet error
	failDel error
}

func newSpyStore() *spyStore {
	return &spyStore{values: map[string]string{}}
}

func (s *spyStore) Get(_ context.Context, domain, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failGet != nil {
		return "", false, s.failGet
	}
	v, ok := s.values[domain+"/"+key]
	return v, ok, nil
}

func (s *spyStore) Set(_ context.Context, domain, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failSet != nil {
		return s.failSet
	}
	s.values[domain+"/"+key] = value
	return nil
}

func (s *spyStore) Delete(_ context.Context, domain, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failDel != nil {
		return s.failDel
	}
	delete(s.values, domain+"/"+key)
	return nil
}

func (s *spyStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets + s.deletes
}

func testTree() *Tree {
	return NewTreeBuilder().
		Group(NewGroupBuilder("welcome").
			Setting(Channel("channel", "welcomeChannel", "Channel for welcome messages")).
			Setting(String("message", "welcomeMessage", "Welcome text", "Welcome {user}!")).
			Setting(Toggle("enabled", "welcomeEnabled", "Send welcome messages", false))).
		Group(NewGroupBuilder("chatsummary").
			Setting(Integer("top-users", "chatSummaryTopUsers", "Users listed in the summary", 5,
				WithMinimum(0), WithMaximum(10))).
			Setting(StringChoice("name-style", "chatSummaryNameStyle", "How users are named",
				[]Choice{{Display: "Username", Value: "username"}, {Display: "Nickname", Value: "nickname"}}, "username"))).
		Group(NewGroupBuilder("leveling").
			Setting(Integer("offset", "levelingOffset", "XP offset", 0, WithSign(SignOnlyPositive))).
			Action(NewAction("add-reward", "Add a role reward",
				Param{Name: "level", Type: ParamInteger, Required: true},
				Param{Name: "role", Type: ParamRole, Required: true})).
			Action(NewAction("remove-reward", "Remove a role reward",
				Param{Name: "level", Type: ParamInteger, Required: true}))).
		MustBuild()
}

func newTestEngine(t *testing.T, store Store, opts ...EngineOption) *Engine {
	t.Helper()
	engine, err := NewEngine(testTree(), store, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func authorized(group, item string, c Candidate) Invocation {
	return Invocation{Domain: "42", Group: group, Item: item, Candidate: c, Authorized: true, Actor: "7"}
}

func TestReadReturnsDefaultWhenAbsent(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)

	result := engine.Dispatch(context.Background(), authorized("chatsummary", "top-users", NoValue()))
	if result.Kind != ResultCurrent {
		t.Fatalf("expected current, got %+v", result)
	}
	if result.DisplayValue != "5" || result.Description != "Users listed in the summary" {
		t.Fatalf("unexpected read result %+v", result)
	}
	if store.mutations() != 0 {
		t.Fatalf("read must never write, got %d mutations", store.mutations())
	}
}

func TestReadFormatsChannelName(t *testing.T) {
	store := newSpyStore()
	store.values["42/welcomeChannel"] = "100"
	engine := newTestEngine(t, store)

	inv := authorized("welcome", "channel", NoValue())
	inv.Channels = ChannelsFunc(func(id ChannelID) (string, bool) { return "#lobby", id == "100" })
	result := engine.Dispatch(context.Background(), inv)
	if result.DisplayValue != "#lobby" || result.Value != "100" {
		t.Fatalf("unexpected channel display %+v", result)
	}
}

func TestWriteValidatesThenPersists(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)

	result := engine.Dispatch(context.Background(), authorized("chatsummary", "name-style", Text("nickname")))
	if result.Kind != ResultConfirmed || result.DisplayValue != "nickname" {
		t.Fatalf("expected confirmed nickname, got %+v", result)
	}
	if result.Description != "How users are named" {
		t.Fatalf("expected description echoed, got %q", result.Description)
	}
	if store.values["42/chatSummaryNameStyle"] != "nickname" || store.sets != 1 {
		t.Fatalf("expected exactly one write of nickname, got %v (%d sets)", store.values, store.sets)
	}
}

func TestFailedValidationNeverWrites(t *testing.T) {
	cases := []struct {
		group, item string
		candidate   Candidate
		reason      Reason
	}{
		{"chatsummary", "name-style", Text("Nickname"), ReasonInvalidChoice},
		{"chatsummary", "top-users", Number(0), ReasonOutOfRange},
		{"chatsummary", "top-users", Number(10), ReasonOutOfRange},
		{"chatsummary", "top-users", Number(11), ReasonOutOfRange},
		{"chatsummary", "top-users", Text("ten"), ReasonInvalidInput},
		{"leveling", "offset", Number(-1), ReasonInvalidSign},
		{"welcome", "enabled", Text("perhaps"), ReasonInvalidInput},
	}
	for _, tc := range cases {
		store := newSpyStore()
		engine := newTestEngine(t, store)
		result := engine.Dispatch(context.Background(), authorized(tc.group, tc.item, tc.candidate))
		if result.Kind != ResultRejected || result.Reason != tc.reason {
			t.Fatalf("%s/%s %s: expected %s, got %+v", tc.group, tc.item, tc.candidate, tc.reason, result)
		}
		if result.Detail == "" {
			t.Fatalf("%s/%s: rejection must carry a detail", tc.group, tc.item)
		}
		if store.mutations() != 0 {
			t.Fatalf("%s/%s: rejected write must not persist", tc.group, tc.item)
		}
	}
}

func TestRejectionDetailsAreSpecific(t *testing.T) {
	engine := newTestEngine(t, newSpyStore())
	ctx := context.Background()

	result := engine.Dispatch(ctx, authorized("chatsummary", "top-users", Number(11)))
	if result.Detail != "The maximum value is 10" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
	result = engine.Dispatch(ctx, authorized("chatsummary", "name-style", Text("Nickname")))
	if result.Detail != "Value must be one of: username, nickname" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
	var validation *ValidationError
	if !errors.As(result.Err, &validation) || validation.Setting != "name-style" {
		t.Fatalf("expected validation error labelled with setting, got %v", result.Err)
	}
}

func TestAcceptedIntegerBoundaries(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)
	result := engine.Dispatch(context.Background(), authorized("chatsummary", "top-users", Number(5)))
	if result.Kind != ResultConfirmed || result.DisplayValue != "5" {
		t.Fatalf("expected 5 accepted, got %+v", result)
	}
	result = engine.Dispatch(context.Background(), authorized("leveling", "offset", Number(3)))
	if result.Kind != ResultConfirmed {
		t.Fatalf("expected 3 accepted for only-positive, got %+v", result)
	}
}

func TestWriteIsIdempotent(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)
	ctx := context.Background()

	first := engine.Dispatch(ctx, authorized("welcome", "enabled", Bool(true)))
	second := engine.Dispatch(ctx, authorized("welcome", "enabled", Bool(true)))
	if first.Kind != ResultConfirmed || second.Kind != ResultConfirmed {
		t.Fatalf("expected two confirmations, got %+v / %+v", first, second)
	}
	if first.DisplayValue != second.DisplayValue || first.DisplayValue != "yes" {
		t.Fatalf("expected identical display values, got %q / %q", first.DisplayValue, second.DisplayValue)
	}
	read := engine.Dispatch(ctx, authorized("welcome", "enabled", NoValue()))
	if read.DisplayValue != "yes" {
		t.Fatalf("expected subsequent read to return yes, got %q", read.DisplayValue)
	}
}

func TestUnauthorizedNeverDisclosesValue(t *testing.T) {
	store := newSpyStore()
	store.values["42/welcomeMessage"] = "secret"
	hook := &activity.CaptureHook{}
	engine := newTestEngine(t, store, WithActivityHooks(hook))

	for _, c := range []Candidate{NoValue(), Text("new")} {
		inv := authorized("welcome", "message", c)
		inv.Authorized = false
		result := engine.Dispatch(context.Background(), inv)
		if result.Kind != ResultRejected || result.Reason != ReasonUnauthorized {
			t.Fatalf("expected unauthorized, got %+v", result)
		}
		if result.DisplayValue != "" || result.Value != "" || result.Description != "" {
			t.Fatalf("unauthorized result disclosed data: %+v", result)
		}
		if strings.Contains(result.Detail, "secret") {
			t.Fatalf("detail disclosed value: %q", result.Detail)
		}
		if !errors.Is(result.Err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", result.Err)
		}
	}
	if store.gets != 0 || store.mutations() != 0 {
		t.Fatalf("unauthorized invocations must not touch the store (gets=%d)", store.gets)
	}
	for _, event := range hook.Events {
		if _, ok := event.Metadata["value"]; ok {
			t.Fatalf("unauthorized event carried a value: %+v", event)
		}
	}
}

func TestUnknownSelectorIsNotFound(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)
	for _, sel := range [][2]string{{"welcome", "nope"}, {"nope", "channel"}} {
		result := engine.Dispatch(context.Background(), authorized(sel[0], sel[1], Text("x")))
		if result.Reason != ReasonNotFound || !errors.Is(result.Err, ErrNotFound) {
			t.Fatalf("%v: expected not found, got %+v", sel, result)
		}
	}
	if store.gets != 0 || store.mutations() != 0 {
		t.Fatalf("unresolved selector must not touch the store")
	}
}

func TestPersistenceFailuresAreDistinct(t *testing.T) {
	boom := errors.New("connection refused")
	ctx := context.Background()

	store := newSpyStore()
	store.failGet = boom
	engine := newTestEngine(t, store)
	result := engine.Dispatch(ctx, authorized("welcome", "message", NoValue()))
	if result.Reason != ReasonPersistence || !errors.Is(result.Err, ErrPersistence) || !errors.Is(result.Err, boom) {
		t.Fatalf("expected persistence failure on read, got %+v", result)
	}
	if result.DisplayValue != "" {
		t.Fatalf("store failure must not be reported as the default, got %q", result.DisplayValue)
	}

	store = newSpyStore()
	store.failSet = boom
	engine = newTestEngine(t, store)
	result = engine.Dispatch(ctx, authorized("welcome", "message", Text("hi")))
	if result.Reason != ReasonPersistence || !errors.Is(result.Err, boom) {
		t.Fatalf("expected persistence failure on write, got %+v", result)
	}

	// A failed invocation must not affect the next one.
	store.failSet = nil
	result = engine.Dispatch(ctx, authorized("welcome", "message", Text("hi")))
	if result.Kind != ResultConfirmed {
		t.Fatalf("expected recovery after store failure, got %+v", result)
	}
}

func TestResetRestoresDefault(t *testing.T) {
	store := newSpyStore()
	store.values["42/chatSummaryTopUsers"] = "8"
	engine := newTestEngine(t, store)
	ctx := context.Background()

	inv := authorized("chatsummary", "top-users", NoValue())
	inv.Reset = true
	result := engine.Dispatch(ctx, inv)
	if result.Kind != ResultConfirmed || result.DisplayValue != "5" {
		t.Fatalf("expected reset to default 5, got %+v", result)
	}
	if store.deletes != 1 || store.sets != 0 {
		t.Fatalf("expected one delete, got sets=%d deletes=%d", store.sets, store.deletes)
	}
	if _, ok := store.values["42/chatSummaryTopUsers"]; ok {
		t.Fatalf("expected stored value removed")
	}

	inv.Candidate = Number(3)
	result = engine.Dispatch(ctx, inv)
	if result.Reason != ReasonInvalidInput || store.mutations() != 1 {
		t.Fatalf("reset with a value must be rejected without mutation, got %+v", result)
	}
}

func TestActionDispatch(t *testing.T) {
	var got ActionRequest
	engine := newTestEngine(t, newSpyStore(),
		WithActionHandler("leveling", "add-reward", func(_ context.Context, req ActionRequest) (string, error) {
			got = req
			return "Reward added", nil
		}),
	)
	ctx := context.Background()

	inv := authorized("leveling", "add-reward", NoValue())
	inv.Args = map[string]Candidate{"level": Number(5), "role": Text("900")}
	result := engine.Dispatch(ctx, inv)
	if result.Kind != ResultPerformed || result.DisplayValue != "Reward added" {
		t.Fatalf("expected performed, got %+v", result)
	}
	if got.Domain != "42" || got.Action.Name != "add-reward" || got.Args["level"] != Number(5) {
		t.Fatalf("unexpected action request %+v", got)
	}

	inv.Args = map[string]Candidate{"level": Number(5)}
	if result := engine.Dispatch(ctx, inv); result.Reason != ReasonInvalidInput || !strings.Contains(result.Detail, "role") {
		t.Fatalf("expected missing role, got %+v", result)
	}

	inv.Args = map[string]Candidate{"level": Number(5), "role": Text("1"), "extra": Text("x")}
	if result := engine.Dispatch(ctx, inv); result.Reason != ReasonInvalidInput || !strings.Contains(result.Detail, "extra") {
		t.Fatalf("expected unknown parameter, got %+v", result)
	}

	remove := authorized("leveling", "remove-reward", NoValue())
	remove.Args = map[string]Candidate{"level": Number(5)}
	if result := engine.Dispatch(ctx, remove); result.Reason != ReasonUnhandled || !errors.Is(result.Err, ErrUnhandled) {
		t.Fatalf("expected unhandled, got %+v", result)
	}

	unauthorized := inv
	unauthorized.Authorized = false
	if result := engine.Dispatch(ctx, unauthorized); result.Reason != ReasonUnauthorized {
		t.Fatalf("expected unauthorized action, got %+v", result)
	}
}

func TestActionHandlerErrors(t *testing.T) {
	engine := newTestEngine(t, newSpyStore(),
		WithActionHandler("leveling", "remove-reward", func(context.Context, ActionRequest) (string, error) {
			return "", &ValidationError{Reason: ReasonNotFound, Detail: "No reward at level 5"}
		}),
		WithActionHandler("leveling", "add-reward", func(context.Context, ActionRequest) (string, error) {
			panic("handler bug")
		}),
	)
	ctx := context.Background()

	inv := authorized("leveling", "remove-reward", NoValue())
	inv.Args = map[string]Candidate{"level": Number(5)}
	if result := engine.Dispatch(ctx, inv); result.Reason != ReasonNotFound || result.Detail != "No reward at level 5" {
		t.Fatalf("expected handler rejection, got %+v", result)
	}

	inv = authorized("leveling", "add-reward", NoValue())
	inv.Args = map[string]Candidate{"level": Number(5), "role": Text("1")}
	result := engine.Dispatch(ctx, inv)
	if result.Reason != ReasonInternal || result.Kind != ResultRejected {
		t.Fatalf("expected panics folded into internal rejection, got %+v", result)
	}
}

func TestNewEngineValidatesHandlers(t *testing.T) {
	noop := func(context.Context, ActionRequest) (string, error) { return "", nil }
	if _, err := NewEngine(testTree(), newSpyStore(), WithActionHandler("leveling", "missing", noop)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown action handler to fail, got %v", err)
	}
	if _, err := NewEngine(testTree(), newSpyStore(), WithActionHandler("welcome", "message", noop)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected handler on a setting to fail, got %v", err)
	}
	if _, err := NewEngine(nil, newSpyStore()); err == nil {
		t.Fatalf("expected nil tree to fail")
	}
	if _, err := NewEngine(testTree(), nil); err == nil {
		t.Fatalf("expected nil store to fail")
	}
}

func TestDispatchEmitsActivity(t *testing.T) {
	hook := &activity.CaptureHook{}
	engine := newTestEngine(t, newSpyStore(), WithActivityHooks(hook), WithActivityChannel("akabot"))
	ctx := context.Background()

	engine.Dispatch(ctx, authorized("chatsummary", "top-users", Number(7)))
	want := []string{activity.VerbResolved, activity.VerbValidated, activity.VerbUpdated}
	if got := hook.Verbs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	updated := hook.Events[2]
	if updated.ObjectID != "chatsummary/top-users" || updated.DomainID != "42" || updated.ActorID != "7" {
		t.Fatalf("unexpected event %+v", updated)
	}
	if updated.Channel != "akabot" || updated.Metadata["value"] != "7" || updated.Metadata["key"] != "chatSummaryTopUsers" {
		t.Fatalf("unexpected event payload %+v", updated)
	}

	hook.Reset()
	engine.Dispatch(ctx, authorized("chatsummary", "top-users", Number(70)))
	if got := hook.Verbs(); !slices.Equal(got, []string{activity.VerbResolved, activity.VerbRejected}) {
		t.Fatalf("unexpected verbs for rejection %v", got)
	}
	if hook.Events[1].Reason != string(ReasonOutOfRange) {
		t.Fatalf("expected out-of-range reason, got %q", hook.Events[1].Reason)
	}

	hook.Reset()
	engine.Dispatch(ctx, authorized("nope", "nope", NoValue()))
	if got := hook.Verbs(); !slices.Equal(got, []string{activity.VerbResolveFailed}) {
		t.Fatalf("unexpected verbs for unknown selector %v", got)
	}
}

func TestHookErrorsDoNotChangeResults(t *testing.T) {
	hook := &activity.CaptureHook{Err: errors.New("sink down")}
	var reported []error
	engine := newTestEngine(t, newSpyStore(),
		WithActivityHooks(hook),
		WithHookErrorHandler(func(err error) { reported = append(reported, err) }),
	)

	result := engine.Dispatch(context.Background(), authorized("welcome", "message", Text("hi")))
	if result.Kind != ResultConfirmed {
		t.Fatalf("expected confirmation despite hook failure, got %+v", result)
	}
	if len(reported) == 0 {
		t.Fatalf("expected hook errors to be reported")
	}
}

func TestConcurrentDispatch(t *testing.T) {
	store := newSpyStore()
	engine := newTestEngine(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i < 10; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if result := engine.Dispatch(ctx, authorized("chatsummary", "top-users", Number(n))); result.Kind != ResultConfirmed {
				t.Errorf("write %d: %+v", n, result)
			}
			engine.Dispatch(ctx, authorized("chatsummary", "top-users", NoValue()))
		}(i)
	}
	wg.Wait()

	if store.sets != 9 {
		t.Fatalf("expected 9 writes, got %d", store.sets)
	}
}
