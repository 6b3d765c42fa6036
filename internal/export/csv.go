// Package export writes processed result entries to delimited and
// spreadsheet formats.
package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// Columns returns the output column set: the union of entry keys in
// first-seen order. Candidate files with ragged schemas still export every
// field.
func Columns(entries []*tabular.Entry) []string {
	var cols []string
	seen := make(map[string]struct{})
	for _, e := range entries {
		for _, k := range e.Keys() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []*tabular.Entry) error {
	cols := Columns(entries)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	row := make([]string, len(cols))
	for _, e := range entries {
		for i, col := range cols {
			v, _ := e.Get(col)
			row[i] = v.Text()
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
