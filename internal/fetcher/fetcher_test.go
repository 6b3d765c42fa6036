package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

func TestReadCSVGrid(t *testing.T) {
	in := strings.Join([]string{
		`SSID,Full Name,Amount`,
		`S1,"Smith, John",150.50`,
		`0042,Jane Doe,`,
	}, "\n")

	grid, err := ReadCSVGrid(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, "Smith, John", grid[1][1].Text())

	amount := grid[1][2]
	assert.Equal(t, tabular.KindNumber, amount.Kind())
	assert.Equal(t, 150.5, amount.Float())

	ssid := grid[2][0]
	assert.Equal(t, tabular.KindNumber, ssid.Kind())
	assert.Equal(t, "0042", ssid.Text())

	assert.True(t, grid[2][2].IsEmpty())
}

func TestReadCSVGridRaggedRows(t *testing.T) {
	in := "a,b,c\nx,y\n1,2,3,4\n"
	grid, err := ReadCSVGrid(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Len(t, grid[1], 2)
	assert.Len(t, grid[2], 4)
}

func TestReadCSVGridCustomDelimiter(t *testing.T) {
	grid, err := ReadCSVGrid(strings.NewReader("a;b\n1;2\n"), Options{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "b", grid[0][1].Text())
}

func writeTestXLSX(t *testing.T, path string, sheets map[string][][]string) {
	t.Helper()
	file := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := file.AddSheet(name)
		require.NoError(t, err)
		for _, cells := range rows {
			row := sheet.AddRow()
			for _, c := range cells {
				row.AddCell().SetString(c)
			}
		}
	}
	require.NoError(t, file.Save(path))
}

func TestReadXLSXGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	writeTestXLSX(t, path, map[string][][]string{
		"Sheet1": {
			{"SSID", "Full Name"},
			{"S1", "John Smith"},
		},
	})

	grid, err := ReadXLSXGrid(path, Options{})
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "John Smith", grid[1][1].Text())
}

func TestReadXLSXGridSheetSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.xlsx")
	writeTestXLSX(t, path, map[string][][]string{
		"Register": {{"SSID", "Name"}, {"S1", "John Smith"}},
	})

	grid, err := ReadXLSXGrid(path, Options{SheetName: "Register"})
	require.NoError(t, err)
	assert.Len(t, grid, 2)

	_, err = ReadXLSXGrid(path, Options{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)

	_, err = ReadXLSXGrid(path, Options{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadGridDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o644))
	grid, err := ReadGrid(csvPath, Options{})
	require.NoError(t, err)
	assert.Len(t, grid, 2)

	_, err = ReadGrid(filepath.Join(dir, "in.pdf"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadGrid(filepath.Join(dir, "missing.csv"), Options{})
	require.Error(t, err)
}

func TestLoadEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.csv")
	content := strings.Join([]string{
		"Payment Batch 2026-07,,",
		"SSID,NIN,Full Name",
		"S1,N1,John Smith",
		"S2,N2,Jane Doe",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, headerIdx, err := LoadEntries(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, headerIdx)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"SSID", "NIN", "Full Name"}, entries[0].Keys())

	name, _ := entries[1].Get("Full Name")
	assert.Equal(t, "Jane Doe", name.Text())
}

func TestLoadEntriesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, _, err := LoadEntries(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no rows")
}
