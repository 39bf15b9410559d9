// Package lookup provides the lookup command.
package lookup

import (
	"github.com/spf13/cobra"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/output"
)

// NewCommand creates the lookup command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <abn>",
		GroupID: "core",
		Short:   "Look up a single ABN in the business register",
		Example: `  orgsync lookup 11000000000
  orgsync lookup "11 000 000 000" -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			result, err := client.LookupABN(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var data any = result
			if result.Data != nil {
				data = result.Data
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), data, nil)
		},
	}
}
