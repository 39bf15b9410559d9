// Package sources provides the sources command.
package sources

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/output"
)

// NewCommand creates the sources command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		GroupID: "management",
		Short:   "Describe the syncable sources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			catalogue := client.Sources()
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), catalogue, func() output.Data {
				names := make([]string, 0, len(catalogue))
				for name := range catalogue {
					names = append(names, name)
				}
				slices.Sort(names)

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					d := catalogue[name]
					rows = append(rows, []string{name, d.Description, strings.Join(d.Parameters, ", ")})
				}
				return output.Data{Headers: []string{"Source", "Description", "Parameters"}, Rows: rows}
			})
		},
	}
}
