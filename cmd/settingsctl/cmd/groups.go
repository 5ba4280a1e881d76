package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/pkg/catalog"
)

func newGroupsCommand(_ *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List setting groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups := catalog.Default().DescribeGroups()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tITEMS\tDESCRIPTION")
			for _, group := range groups {
				fmt.Fprintf(w, "%s\t%d\t%s\n", group.Name, len(group.Items), group.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newItemsCommand(_ *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "items <group>",
		Short: "List the settings and actions of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, ok := catalog.Default().DescribeGroup(args[0])
			if !ok {
				return fmt.Errorf("unknown group %q", args[0])
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), group)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tTYPE\tDEFAULT\tDESCRIPTION")
			for _, item := range group.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Item, itemType(item), item.Default, item.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func itemType(d settings.Descriptor) string {
	if d.Kind == settings.ItemAction {
		names := make([]string, 0, len(d.Params))
		for _, param := range d.Params {
			names = append(names, param.Name)
		}
		return "action(" + strings.Join(names, ", ") + ")"
	}
	return string(d.Type)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
