// Package cmd implements the settingsctl command tree.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mldkyt/go-settings/internal/config"
	"github.com/mldkyt/go-settings/internal/logging"
)

// globals carries the state shared by every subcommand of one root command.
type globals struct {
	v       *viper.Viper
	cfgFile string
	domain  string
	actor   string
}

// NewRootCommand builds a fresh command tree with its own viper instance, so
// tests can execute it repeatedly without leaking flag state.
func NewRootCommand() *cobra.Command {
	g := &globals{v: viper.New()}

	root := &cobra.Command{
		Use:   "settingsctl",
		Short: "Inspect and manage per-server bot settings",
		Long: `settingsctl reads and writes the settings of a server (domain) through
the same engine the bot uses, validates values against each setting's kind,
and can serve the admin HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.cfgFile, "config", "", "config file (default: ./settings.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "auto", "log format (auto, text, json)")
	flags.String("store", "sqlite", "store driver (memory, sqlite, badger)")
	flags.String("store-path", "", "SQLite file or Badger directory")
	flags.String("rules-engine", "expr", "rule evaluator (expr, cel, js)")
	flags.StringVarP(&g.domain, "domain", "d", "", "domain (server id) to operate on")
	flags.StringVar(&g.actor, "actor", "settingsctl", "actor recorded in activity events")

	_ = g.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = g.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = g.v.BindPFlag("store.driver", flags.Lookup("store"))
	_ = g.v.BindPFlag("store.path", flags.Lookup("store-path"))
	_ = g.v.BindPFlag("rules.engine", flags.Lookup("rules-engine"))

	root.AddCommand(
		newGroupsCommand(g),
		newItemsCommand(g),
		newGetCommand(g),
		newSetCommand(g),
		newResetCommand(g),
		newExportCommand(g),
		newImportCommand(g),
		newEvalCommand(g),
		newSchemaCommand(g),
		newServeCommand(g),
	)
	return root
}

// load reads and validates configuration.
func (g *globals) load() (*config.Config, error) {
	loader := config.NewLoaderWithViper(g.v)
	if g.cfgFile != "" {
		loader.WithConfigFile(g.cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (g *globals) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cmd.ErrOrStderr(),
		Secrets: []string{cfg.HTTP.AdminToken},
	})
}

func (g *globals) requireDomain() (string, error) {
	if g.domain == "" {
		return "", errors.New("--domain is required")
	}
	return g.domain, nil
}
