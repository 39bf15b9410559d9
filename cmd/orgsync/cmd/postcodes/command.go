// Package postcodes provides commands to register and list the postcodes
// processed by bulk syncs.
package postcodes

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/output"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

// NewCommand creates the postcodes command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "postcodes",
		GroupID: "management",
		Short:   "Manage the postcodes of each state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newUploadCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newUploadCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <state> <file.csv>",
		Short: "Replace the postcodes of a state from a CSV file",
		Long: `Replace the postcodes registered for a state.

The file is either a CSV with a "postcode" column or a plain list with one
postcode per line. Uploading clears the cached bulk sync of the state.`,
		Example: `  orgsync postcodes upload NSW postcodes.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, path := args[0], args[1]
			content, err := os.ReadFile(path)
			if err != nil {
				return errors.WrapIO("read", path, err)
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			result, err := client.UploadPostcodes(cmd.Context(), state, filepath.Base(path), string(content))
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), result, nil)
		},
	}
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "list <state>",
		Short: "List the postcodes registered for a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			result, err := client.Postcodes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), result, func() output.Data {
				rows := make([][]string, len(result.Postcodes))
				for i, pc := range result.Postcodes {
					rows[i] = []string{result.State, pc}
				}
				return output.Data{Headers: []string{"State", "Postcode"}, Rows: rows}
			})
		},
	}
}
