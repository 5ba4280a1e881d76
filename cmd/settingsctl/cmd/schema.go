package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mldkyt/go-settings/pkg/catalog"
	"github.com/mldkyt/go-settings/schema/openapi"
)

func newSchemaCommand(_ *globals) *cobra.Command {
	var title, version, basePath string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the OpenAPI document of the settings API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []openapi.GeneratorOption{openapi.WithInfo(title, version)}
			if basePath != "" {
				opts = append(opts, openapi.WithBasePath(basePath))
			}
			doc, err := openapi.Generate(catalog.Default(), opts...)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&title, "title", "Bot settings", "document title")
	cmd.Flags().StringVar(&version, "doc-version", "1.0.0", "document version")
	cmd.Flags().StringVar(&basePath, "base-path", "", "prefix for every path")
	return cmd
}
