package tabular

import (
	"fmt"
	"strings"
)

// maxHeaderScan bounds how deep DetectHeader looks. Header rows sit near the
// top of uploaded sheets; scanning further only costs time on huge files.
const maxHeaderScan = 10

// headerKeywords are tokens typical of identity-record column labels. A row
// scores one point per keyword present in its joined lowercased text.
var headerKeywords = []string{
	"ssid", "ssn", "nin", "name", "id", "pension", "account",
	"bank", "verification", "no", "s/n", "firstname", "lastname",
	"first name", "last name", "national",
}

// DetectHeader returns the index of the row most likely to be the header.
//
// Rows with fewer than two non-empty cells, or where less than half the
// non-empty cells are textual, are rejected outright (blank spacer rows and
// numeric data rows). The remaining rows are scored by keyword density; the
// densest early row wins, ties keep the lowest index. When nothing scores,
// row 0 is assumed — a fully generic header degrades to the common case.
func DetectHeader(grid [][]Value) int {
	limit := len(grid)
	if limit > maxHeaderScan {
		limit = maxHeaderScan
	}

	bestIdx, bestScore := 0, 0
	for i := 0; i < limit; i++ {
		score := scoreHeaderRow(grid[i])
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}

func scoreHeaderRow(row []Value) int {
	nonEmpty, textual := 0, 0
	var joined strings.Builder
	for _, cell := range row {
		if cell.IsEmpty() {
			continue
		}
		nonEmpty++
		if cell.Kind() == KindString {
			textual++
		}
		joined.WriteString(strings.ToLower(cell.Text()))
		joined.WriteByte(' ')
	}

	if nonEmpty < 2 {
		return 0
	}
	if textual*2 < nonEmpty {
		return 0
	}

	text := joined.String()
	score := 0
	for _, kw := range headerKeywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}

// ToEntries converts a raw grid into keyed entries using the row at
// headerIdx as column labels. Rows above the header (title rows, blank
// rows) are discarded; fully empty data rows are skipped. Blank or
// duplicate labels are made unique so no cell is silently dropped.
func ToEntries(grid [][]Value, headerIdx int) []*Entry {
	if headerIdx < 0 || headerIdx >= len(grid) {
		return nil
	}

	labels := headerLabels(grid[headerIdx])

	var entries []*Entry
	for _, row := range grid[headerIdx+1:] {
		if emptyRow(row) {
			continue
		}
		e := NewEntry()
		for i, label := range labels {
			if i < len(row) {
				e.Set(label, row[i])
			} else {
				e.Set(label, Null)
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func headerLabels(row []Value) []string {
	labels := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, cell := range row {
		label := strings.TrimSpace(cell.Text())
		if label == "" {
			label = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[label]; dup {
			seen[label] = n + 1
			label = fmt.Sprintf("%s_%d", label, n+1)
		} else {
			seen[label] = 1
		}
		labels[i] = label
	}
	return labels
}

func emptyRow(row []Value) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
