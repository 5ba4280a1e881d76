package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mldkyt/go-settings/internal/api"
	"github.com/mldkyt/go-settings/pkg/state"
)

func newServeCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin HTTP API",
		Long: `Serve exposes the settings engine over HTTP. Requests carrying the
configured admin token as a bearer credential may read and change settings;
introspection routes (/groups, /schema, /health) are public.

Examples:
  # Start with defaults (127.0.0.1:8080)
  SETTINGS_HTTP_ADMIN_TOKEN=secret settingsctl serve

  # Listen on all interfaces
  settingsctl serve --addr 0.0.0.0:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.serve(cmd)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from http.addr)")
	_ = g.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (g *globals) serve(cmd *cobra.Command) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := g.logger(cmd, cfg)
	if cfg.HTTP.AdminToken == "" {
		logger.Warn("no admin token configured, every settings request will be rejected as unauthorized")
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []api.ServerOption{
		api.WithLogger(logger.With("component", "api")),
		api.WithAdminToken(cfg.HTTP.AdminToken),
	}
	if len(cfg.HTTP.CORSOrigins) > 0 {
		opts = append(opts, api.WithCORSOrigins(cfg.HTTP.CORSOrigins...))
	}
	if cfg.HTTP.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst))
	}
	if a.registry != nil {
		opts = append(opts, api.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}
	server := api.NewServer(a.engine, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.ListenAndServe(ctx, cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeoutDuration())
	})
	if badgerStore, ok := a.store.(*state.BadgerStore); ok {
		eg.Go(func() error {
			return runBadgerGC(ctx, a, badgerStore, cfg.Store.GCIntervalDuration())
		})
	}
	return eg.Wait()
}

// runBadgerGC collects the value log every interval until ctx is done.
// Failures are logged and retried on the next tick.
func runBadgerGC(ctx context.Context, a *app, store *state.BadgerStore, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rewritten, err := store.GC(0.5)
			if err != nil {
				a.logger.Warn("badger gc failed", "error", err)
				continue
			}
			a.logger.Debug("badger gc completed", "rewritten", rewritten)
		}
	}
}
