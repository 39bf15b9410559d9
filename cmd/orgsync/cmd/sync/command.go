// Package sync provides the sync commands: bulk syncs of a state and
// single-source syncs.
package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/output"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Extract, merge and load organisation records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newAllCommand(app))
	cmd.AddCommand(newSourceCommand(app))
	return cmd
}

func newAllCommand(app application.Application) *cobra.Command {
	var showRecords bool
	cmd := &cobra.Command{
		Use:   "all <state>",
		Short: "Sync every registered postcode of a state across all registries",
		Long: `Run every registered postcode of a state against the business register,
the charity register and the NSW associations register, merge the results
and load them into the configured sinks.

Postcodes must first be registered with "orgsync postcodes upload".`,
		Example: `  orgsync sync all NSW
  orgsync sync all vic --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			result, err := client.SyncAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), result, func() output.Data {
				if showRecords {
					return recordsTable(result.MergedRecords)
				}
				return summaryTable(result)
			})
		},
	}
	cmd.Flags().BoolVar(&showRecords, "records", false, "show the merged record preview instead of the summary (table output)")
	return cmd
}

func newSourceCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "source <source> [state] [postcode]",
		Short: "Sync a single registry",
		Long: fmt.Sprintf(`Extract one registry, optionally narrowed to a state and postcode.

Valid sources: %s. A postcode is only applied together with a state.`, strings.Join(sources.ValidNames(), ", ")),
		Example: `  orgsync sync source acnc
  orgsync sync source nsw NSW
  orgsync sync source abn NSW 2000`,
		Args:      cobra.RangeArgs(1, 3),
		ValidArgs: sources.ValidNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, state, postcode := args[0], arg(args, 1), arg(args, 2)

			client, err := app.Client()
			if err != nil {
				return err
			}
			result, err := client.SyncSource(cmd.Context(), source, state, postcode)
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), app.OutputFormat(), result, func() output.Data {
				return recordsTable(result.Data)
			})
		},
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func summaryTable(r *etl.SyncResult) output.Data {
	rows := [][]string{
		{"State", r.State},
		{"Run ID", r.RunID},
		{"Postcodes", strconv.Itoa(r.PostcodeStats.TotalPostcodes)},
		{"Processed", strconv.Itoa(r.PostcodeStats.ProcessedPostcodes)},
		{"Failed", strings.Join(r.PostcodeStats.FailedPostcodes, ", ")},
		{"ABN Records", strconv.Itoa(r.MergeStats.TotalABNRecords)},
		{"ACNC Records", strconv.Itoa(r.MergeStats.TotalACNCRecords)},
		{"NSW Records", strconv.Itoa(r.MergeStats.TotalNSWRecords)},
		{"ABN + ACNC", strconv.Itoa(r.MergeStats.ABNACNCMatches)},
		{"ACNC + NSW", strconv.Itoa(r.MergeStats.ACNCNSWMatches)},
		{"All Sources", strconv.Itoa(r.MergeStats.AllSourceMatches)},
		{"Merged Records", strconv.Itoa(r.TotalMergedRecords)},
	}
	for _, res := range r.LoaderResult {
		status := strconv.Itoa(res.Upserted) + " upserted"
		if res.Error != "" {
			status = "failed: " + res.Error
		}
		rows = append(rows, []string{"Sink " + res.Sink, status})
	}
	if r.ExportFile != "" {
		rows = append(rows, []string{"Export", r.ExportFile})
	}
	if r.ExportError != "" {
		rows = append(rows, []string{"Export Error", r.ExportError})
	}
	if r.Object != "" {
		rows = append(rows, []string{"Object", r.Object})
	}
	if r.Report != "" {
		rows = append(rows, []string{"Report", r.Report})
	}
	rows = append(rows, []string{"Processing Time", fmt.Sprintf("%.2fs", r.ProcessingTime)})
	if r.Cached {
		rows = append(rows, []string{"Cached", "yes"})
	}
	return output.Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft},
	}
}

func recordsTable(orgs []records.Organisation) output.Data {
	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		names := make([]string, len(o.Sources))
		for i, s := range o.Sources {
			names[i] = string(s)
		}
		rows = append(rows, []string{o.Key(), o.Name(), strings.Join(names, ",")})
	}
	return output.Data{
		Headers: []string{"Key", "Name", "Sources"},
		Rows:    rows,
	}
}
