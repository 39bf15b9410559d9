// Package export writes merged organisations out of the pipeline: a CSV file
// per state, an optional copy in object storage and a markdown run report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// FileName returns the export file name for a state.
func FileName(state string) string {
	return fmt.Sprintf("merged_records_%s.csv", strings.ToUpper(state))
}

// WriteCSV writes the header followed by one row per organisation.
func WriteCSV(w io.Writer, orgs []records.Organisation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(records.Columns); err != nil {
		return err
	}
	for _, o := range orgs {
		if err := cw.Write(o.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Writer writes state exports into a directory.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir. An empty dir means the working
// directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Dir returns the export directory.
func (w *Writer) Dir() string { return w.dir }

// Write writes merged_records_{STATE}.csv, replacing any previous export,
// and returns its path.
func (w *Writer) Write(state string, orgs []records.Organisation) (string, error) {
	if err := os.MkdirAll(w.dir, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("mkdir", w.dir, err)
	}

	path := filepath.Join(w.dir, FileName(state))
	tmp, err := os.CreateTemp(w.dir, ".export-*.csv")
	if err != nil {
		return "", errors.WrapIO("create", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, orgs); err != nil {
		_ = tmp.Close()
		return "", errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return "", errors.WrapIO("chmod", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.WrapIO("rename", path, err)
	}
	return path, nil
}
