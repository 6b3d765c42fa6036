package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// WriteXLSX writes entries to a single-sheet XLSX workbook at path.
func WriteXLSX(path, sheetName string, entries []*tabular.Entry) error {
	if sheetName == "" {
		sheetName = "Results"
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	cols := Columns(entries)
	header := sheet.AddRow()
	for _, col := range cols {
		header.AddCell().SetString(col)
	}

	for _, e := range entries {
		row := sheet.AddRow()
		for _, col := range cols {
			v, _ := e.Get(col)
			cell := row.AddCell()
			if v.Kind() == tabular.KindNumber {
				cell.SetFloat(v.Float())
			} else {
				cell.SetString(v.Text())
			}
		}
	}

	return eris.Wrapf(file.Save(path), "export: save xlsx %s", path)
}
