package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/internal/config"
	"github.com/mldkyt/go-settings/pkg/activity"
	"github.com/mldkyt/go-settings/pkg/activity/logsink"
	"github.com/mldkyt/go-settings/pkg/activity/promsink"
	"github.com/mldkyt/go-settings/pkg/catalog"
	"github.com/mldkyt/go-settings/pkg/rulecache"
	"github.com/mldkyt/go-settings/pkg/state"
)

// app is the wired engine behind one command invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    state.Store
	cache    *rulecache.Cache
	engine   *settings.Engine
	registry *prometheus.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := state.Open(state.Config{
		Driver: state.Driver(cfg.Store.Driver),
		Path:   cfg.Store.Path,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	cache, err := rulecache.New(cfg.Rules.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store, cache: cache}

	var hooks []activity.ActivityHook
	if cfg.Activity.Enabled {
		hooks = append(hooks, logsink.New(logger.With("component", "activity")))
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		hook, err := promsink.New(a.registry, cfg.Metrics.Namespace)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		hooks = append(hooks, hook)
	}

	evaluator, err := newEvaluator(cfg.Rules.Engine)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine, err = settings.NewEngine(catalog.Default(), store,
		settings.WithActivityHooks(hooks...),
		settings.WithActivityChannel(cfg.Activity.Channel),
		settings.WithHookErrorHandler(func(err error) {
			logger.Warn("activity hook failed", "error", err)
		}),
		settings.WithEvaluator(evaluator),
		settings.WithProgramCache(cache),
		settings.WithRuleObserver(settings.RuleObserverFunc(func(event settings.RuleEvent) {
			attrs := []any{
				"engine", event.Engine,
				"domain", event.Domain,
				"expr", event.Expr,
				"cached", event.Cached,
				"duration", event.Duration,
			}
			if event.Err != nil {
				logger.Warn("rule evaluation failed", append(attrs, "error", event.Err)...)
				return
			}
			logger.Debug("rule evaluated", attrs...)
		})),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newEvaluator(name string) (settings.Evaluator, error) {
	switch name {
	case "", "expr":
		return settings.NewExprEvaluator(), nil
	case "cel":
		return settings.NewCELEvaluator(), nil
	case "js":
		evaluator := settings.NewJSEvaluator()
		if evaluator == nil {
			return nil, errors.New("the js rules engine requires a build with the js_eval tag")
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("unknown rules engine %q", name)
	}
}

// Close releases the store and the program cache.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}
