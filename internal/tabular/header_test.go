package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(cells ...string) []Value {
	out := make([]Value, len(cells))
	for i, c := range cells {
		out[i] = Classify(c)
	}
	return out
}

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name string
		grid [][]Value
		want int
	}{
		{
			name: "header on first row",
			grid: [][]Value{
				row("SSID", "NIN", "Full Name"),
				row("S1", "N1", "John Smith"),
			},
			want: 0,
		},
		{
			name: "title and blank rows above header",
			grid: [][]Value{
				row("Pension Verification Export", "", ""),
				row("", "", ""),
				row("S/N", "SSID", "Full Name", "Bank Account"),
				row("1", "S1", "John Smith", "0012345"),
			},
			want: 2,
		},
		{
			name: "numeric data rows never win",
			grid: [][]Value{
				row("1", "2", "3"),
				row("SSID", "NIN", "Name"),
			},
			want: 1,
		},
		{
			name: "tie keeps the earlier row",
			grid: [][]Value{
				row("SSID", "Name"),
				row("SSID", "Name"),
			},
			want: 0,
		},
		{
			name: "nothing scores defaults to row zero",
			grid: [][]Value{
				row("alpha", "beta"),
				row("gamma", "delta"),
			},
			want: 0,
		},
		{
			name: "single cell rows rejected",
			grid: [][]Value{
				row("SSID Register"),
				row("SSID", "Full Name"),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHeader(tt.grid))
		})
	}
}

func TestDetectHeaderScanDepthBounded(t *testing.T) {
	grid := make([][]Value, 0, 14)
	for i := 0; i < 12; i++ {
		grid = append(grid, row("x", "y"))
	}
	// A header-looking row beyond the scan window is never picked.
	grid = append(grid, row("SSID", "NIN", "Full Name"))
	assert.Equal(t, 0, DetectHeader(grid))
}

func TestToEntries(t *testing.T) {
	grid := [][]Value{
		row("Quarterly Report", ""),
		row("SSID", "Full Name", "Amount"),
		row("S1", "John Smith", "150.50"),
		row("", "", ""),
		row("S2", "Jane Doe", "99"),
	}

	entries := ToEntries(grid, 1)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, []string{"SSID", "Full Name", "Amount"}, first.Keys())
	v, _ := first.Get("Amount")
	assert.Equal(t, KindNumber, v.Kind())
	assert.Equal(t, 150.5, v.Float())

	second := entries[1]
	name, _ := second.Get("Full Name")
	assert.Equal(t, "Jane Doe", name.Text())
}

func TestToEntriesLabelCleanup(t *testing.T) {
	grid := [][]Value{
		row("SSID", "", "Name", "Name"),
		row("S1", "x", "John", "Smith"),
	}

	entries := ToEntries(grid, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"SSID", "column_2", "Name", "Name_2"}, entries[0].Keys())

	dup, _ := entries[0].Get("Name_2")
	assert.Equal(t, "Smith", dup.Text())
}

func TestToEntriesShortRowsPadded(t *testing.T) {
	grid := [][]Value{
		row("SSID", "Full Name", "NIN"),
		row("S1", "John Smith"),
	}

	entries := ToEntries(grid, 0)
	require.Len(t, entries, 1)

	nin, ok := entries[0].Get("NIN")
	require.True(t, ok)
	assert.True(t, nin.IsEmpty())
}

func TestToEntriesBadHeaderIndex(t *testing.T) {
	grid := [][]Value{row("SSID")}
	assert.Nil(t, ToEntries(grid, -1))
	assert.Nil(t, ToEntries(grid, 5))
}
