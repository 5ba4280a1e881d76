package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	settings "github.com/mldkyt/go-settings"
)

// runWithApp loads configuration, wires the engine and runs fn against it.
func (g *globals) runWithApp(cmd *cobra.Command, fn func(*app) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, g.logger(cmd, cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// invocation builds an authorized invocation: operators running settingsctl
// hold the elevated permission by virtue of store access.
func (g *globals) invocation(domain, group, item string) settings.Invocation {
	return settings.Invocation{
		Domain:     domain,
		Group:      group,
		Item:       item,
		Authorized: true,
		Actor:      g.actor,
	}
}

func newGetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <group> <item>",
		Short: "Show the current value of a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				result := a.engine.Dispatch(cmd.Context(), g.invocation(domain, args[0], args[1]))
				return printResult(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newSetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set <group> <item> <value>",
		Short: "Validate and store a new value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				inv := g.invocation(domain, args[0], args[1])
				inv.Candidate = settings.Text(args[2])
				return printResult(cmd.OutOrStdout(), a.engine.Dispatch(cmd.Context(), inv))
			})
		},
	}
}

func newResetCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <group> <item>",
		Short: "Remove a stored value so the default applies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				inv := g.invocation(domain, args[0], args[1])
				inv.Reset = true
				result := a.engine.Dispatch(cmd.Context(), inv)
				if result.Rejected() {
					return &rejectionError{result: result}
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s/%s reset to %s\n", result.Group, result.Item, displayOrUnset(result))
				return err
			})
		},
	}
}

func newEvalCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a rule expression against a domain's settings",
		Example: `  settingsctl eval -d 42 'antiraid.nopfp && !antiraid.spamdelete'
  settingsctl eval -d 42 --rules-engine cel 'chatsummary["top-users"] > 3'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				value, err := a.engine.Evaluate(cmd.Context(), domain, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
				return err
			})
		},
	}
}

// printResult writes a successful result, or turns a rejection into an error
// carrying the user-facing detail.
func printResult(w io.Writer, result settings.Result) error {
	if result.Rejected() {
		return &rejectionError{result: result}
	}
	switch result.Kind {
	case settings.ResultConfirmed:
		_, err := fmt.Fprintf(w, "%s/%s set to %s\n", result.Group, result.Item, displayOrUnset(result))
		return err
	default:
		_, err := fmt.Fprintf(w, "%s/%s = %s\n", result.Group, result.Item, displayOrUnset(result))
		return err
	}
}

func displayOrUnset(result settings.Result) string {
	if result.DisplayValue == "" {
		return "(not set)"
	}
	return result.DisplayValue
}

type rejectionError struct {
	result settings.Result
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("%s/%s: %s (%s)", e.result.Group, e.result.Item, e.result.Detail, e.result.Reason)
}

func (e *rejectionError) Unwrap() error {
	return e.result.Err
}
