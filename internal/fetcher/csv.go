package fetcher

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// ReadCSVGrid reads delimited text into a raw grid. Rows may have varying
// field counts; cells are classified into string/number/null values.
func ReadCSVGrid(r io.Reader, opts Options) ([][]tabular.Value, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // uploaded files rarely have uniform width

	var grid [][]tabular.Value
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		row := make([]tabular.Value, len(record))
		for i, cell := range record {
			row[i] = tabular.Classify(cell)
		}
		grid = append(grid, row)
	}
	return grid, nil
}
