// Package fetcher reads CSV and XLSX files into raw tabular grids for the
// reconciliation engine. It only decodes local files; it never fetches over
// the network.
package fetcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// Options configures grid reading.
type Options struct {
	// Delimiter overrides the CSV field separator (default ',').
	Delimiter rune
	// SheetName selects an XLSX sheet by name; empty means SheetIndex.
	SheetName string
	// SheetIndex selects an XLSX sheet by position (default 0).
	SheetIndex int
}

// ReadGrid reads path into a raw grid, dispatching on file extension.
// Supported: .csv, .txt (delimited text), .xlsx.
func ReadGrid(path string, opts Options) ([][]tabular.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close()
		return ReadCSVGrid(f, opts)
	case ".xlsx":
		return ReadXLSXGrid(path, opts)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// LoadEntries reads path, detects the header row, and returns keyed
// entries plus the detected header index.
func LoadEntries(path string, opts Options) ([]*tabular.Entry, int, error) {
	grid, err := ReadGrid(path, opts)
	if err != nil {
		return nil, 0, err
	}
	if len(grid) == 0 {
		return nil, 0, eris.Errorf("fetcher: %s contains no rows", path)
	}
	headerIdx := tabular.DetectHeader(grid)
	return tabular.ToEntries(grid, headerIdx), headerIdx, nil
}
