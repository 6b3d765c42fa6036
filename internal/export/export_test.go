package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahelgroup/recon-cli/internal/fetcher"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

func entry(pairs ...string) *tabular.Entry {
	e := tabular.NewEntry()
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Set(pairs[i], tabular.Classify(pairs[i+1]))
	}
	return e
}

func TestColumnsUnionFirstSeen(t *testing.T) {
	entries := []*tabular.Entry{
		entry("SSID", "S1", "Full Name", "John Smith"),
		entry("SSID", "S2", "NIN", "N2"),
	}
	assert.Equal(t, []string{"SSID", "Full Name", "NIN"}, Columns(entries))
	assert.Nil(t, Columns(nil))
}

func TestWriteCSV(t *testing.T) {
	entries := []*tabular.Entry{
		entry("SSID", "S1", "Full Name", "Smith, John"),
		entry("SSID", "0042", "NIN", "N2"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	want := "SSID,Full Name,NIN\n" +
		"S1,\"Smith, John\",\n" +
		"0042,,N2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	entries := []*tabular.Entry{
		entry("SSID", "S1", "Full Name", "John Smith", "Amount", "150.5"),
	}

	require.NoError(t, WriteXLSX(path, "Results", entries))

	grid, err := fetcher.ReadXLSXGrid(path, fetcher.Options{SheetName: "Results"})
	require.NoError(t, err)
	require.Len(t, grid, 2)

	assert.Equal(t, "SSID", grid[0][0].Text())
	assert.Equal(t, "John Smith", grid[1][1].Text())

	amount := grid[1][2]
	assert.Equal(t, tabular.KindNumber, amount.Kind())
	assert.Equal(t, 150.5, amount.Float())
}

func TestWriteXLSXDefaultSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, "", []*tabular.Entry{entry("a", "1")}))

	_, err := fetcher.ReadXLSXGrid(path, fetcher.Options{SheetName: "Results"})
	require.NoError(t, err)
}
