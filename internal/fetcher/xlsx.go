package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// ReadXLSXGrid reads one sheet of an XLSX workbook into a raw grid.
func ReadXLSXGrid(path string, opts Options) ([][]tabular.Value, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}

	grid := make([][]tabular.Value, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]tabular.Value, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = tabular.Classify(cell.String())
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func pickSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
