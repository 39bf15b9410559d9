package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
)

// Summary is the input of a run report.
type Summary struct {
	RunID     string
	State     string
	Postcodes batch.PostcodeStats
	Merge     reconciler.Statistics
	Sinks     []sinks.Result
	File      string
	Object    string
	Duration  time.Duration
}

// WriteReport renders s as a markdown document.
func WriteReport(w io.Writer, s Summary) error {
	doc := md.NewMarkdown(w)

	doc.H1("Sync report: " + strings.ToUpper(s.State)).LF()
	if s.RunID != "" {
		doc.PlainTextf("Run `%s` finished in %s.", s.RunID, s.Duration.Round(time.Millisecond)).LF().LF()
	}

	doc.H2("Postcodes").LF()
	doc.Table(md.TableSet{
		Header: []string{"Total", "Processed", "Failed"},
		Rows: [][]string{{
			fmt.Sprint(s.Postcodes.TotalPostcodes),
			fmt.Sprint(s.Postcodes.ProcessedPostcodes),
			fmt.Sprint(len(s.Postcodes.FailedPostcodes)),
		}},
	}).LF()

	if len(s.Postcodes.ByPostcode) > 0 {
		codes := make([]string, 0, len(s.Postcodes.ByPostcode))
		for pc := range s.Postcodes.ByPostcode {
			codes = append(codes, pc)
		}
		sort.Strings(codes)

		rows := make([][]string, 0, len(codes))
		for _, pc := range codes {
			c := s.Postcodes.ByPostcode[pc]
			rows = append(rows, []string{pc, fmt.Sprint(c.ABN), fmt.Sprint(c.ACNC), fmt.Sprint(c.NSW), fmt.Sprint(c.Total)})
		}
		doc.Table(md.TableSet{
			Header: []string{"Postcode", "ABN", "ACNC", "NSW", "Total"},
			Rows:   rows,
		}).LF()
	}

	if len(s.Postcodes.FailedPostcodes) > 0 {
		doc.H3("Failed postcodes").LF()
		doc.BulletList(s.Postcodes.FailedPostcodes...).LF()
	}

	m := s.Merge
	doc.H2("Merge").LF()
	doc.Table(md.TableSet{
		Header: []string{"Statistic", "Count"},
		Rows: [][]string{
			{"ABN records", fmt.Sprint(m.TotalABNRecords)},
			{"ACNC records", fmt.Sprint(m.TotalACNCRecords)},
			{"NSW records", fmt.Sprint(m.TotalNSWRecords)},
			{"ABN + ACNC matches", fmt.Sprint(m.ABNACNCMatches)},
			{"ACNC + NSW matches", fmt.Sprint(m.ACNCNSWMatches)},
			{"All sources", fmt.Sprint(m.AllSourceMatches)},
			{"ABN only", fmt.Sprint(m.ABNOnly)},
			{"ACNC only", fmt.Sprint(m.ACNCOnly)},
			{"NSW only", fmt.Sprint(m.NSWOnly)},
			{"Merged", fmt.Sprint(m.MergedRecords)},
		},
	}).LF()

	if s.File != "" || s.Object != "" || len(s.Sinks) > 0 {
		doc.H2("Outputs").LF()
		var items []string
		if s.File != "" {
			items = append(items, "CSV: "+md.Code(s.File))
		}
		if s.Object != "" {
			items = append(items, "Object: "+md.Code(s.Object))
		}
		for _, r := range s.Sinks {
			if r.Error != "" {
				items = append(items, fmt.Sprintf("%s: failed (%s)", r.Sink, r.Error))
				continue
			}
			items = append(items, fmt.Sprintf("%s: %d upserted", r.Sink, r.Upserted))
		}
		doc.BulletList(items...).LF()
	}

	return doc.Build()
}

// ReportName returns the report file name for a state.
func ReportName(state string) string {
	return fmt.Sprintf("sync_report_%s.md", strings.ToUpper(state))
}

// WriteReport writes sync_report_{STATE}.md into the export directory and
// returns its path.
func (w *Writer) WriteReport(s Summary) (string, error) {
	if err := os.MkdirAll(w.dir, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("mkdir", w.dir, err)
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, s); err != nil {
		return "", errors.WrapIO("render", ReportName(s.State), err)
	}
	path := filepath.Join(w.dir, ReportName(s.State))
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}
