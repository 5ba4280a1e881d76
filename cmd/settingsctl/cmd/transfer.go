package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	settings "github.com/mldkyt/go-settings"
)

func newExportCommand(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a domain's settings as YAML",
		Long: `Export writes the values explicitly stored for a domain, in stored form,
as YAML keyed by group and item. With --all, defaults are included and values
are decoded to their natural types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				var doc any
				if all {
					doc, err = a.engine.Snapshot(cmd.Context(), domain)
				} else {
					doc, err = a.engine.Stored(cmd.Context(), domain)
				}
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include defaults")
	return cmd
}

func newImportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Apply settings from a YAML file produced by export",
		Long: `Import validates and writes every group/item value in the file through
the engine, so invalid values are reported and never stored. Valid entries
are applied even when others fail. Null entries and empty channels, as written
by export --all for unset values, are skipped and leave the domain unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := g.requireDomain()
			if err != nil {
				return err
			}
			doc, err := readImport(args[0])
			if err != nil {
				return err
			}
			return g.runWithApp(cmd, func(a *app) error {
				var errs []error
				applied, skipped := 0, 0
				for _, group := range sortedKeys(doc) {
					items := doc[group]
					for _, item := range sortedKeys(items) {
						if unsetOnImport(a.engine.Tree(), group, item, items[item]) {
							skipped++
							continue
						}
						candidate, err := settings.CandidateFromJSON(items[item])
						if err != nil {
							errs = append(errs, fmt.Errorf("%s/%s: %w", group, item, err))
							continue
						}
						inv := g.invocation(domain, group, item)
						inv.Candidate = candidate
						if err := printResult(cmd.OutOrStdout(), a.engine.Dispatch(cmd.Context(), inv)); err != nil {
							errs = append(errs, err)
							continue
						}
						applied++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d applied, %d skipped, %d failed\n", applied, skipped, len(errs))
				return errors.Join(errs...)
			})
		},
	}
}

// unsetOnImport reports entries that describe an unset value rather than a
// write: nulls, and the empty channel an unconfigured channel setting exports as.
func unsetOnImport(tree *settings.Tree, group, item string, value any) bool {
	if value == nil {
		return true
	}
	text, ok := value.(string)
	if !ok || text != "" {
		return false
	}
	s, err := tree.Setting(group, item)
	return err == nil && s.Kind.Type() == settings.TypeChannel
}

func readImport(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
