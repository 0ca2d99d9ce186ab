// Package mirror reconciles canonical rows with a spreadsheet-style mirror
// that humans edit. The push path diffs keyed rows against the sheet and
// emits the minimal set of batched updates/appends; the pull path parses the
// sheet back into typed values.
package mirror

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RowUpdate targets one existing sheet row. Row is 1-based with the header
// occupying row 1; positions are only valid for the pass that computed them.
type RowUpdate struct {
	Row    int
	Values []any
}

// Worksheet is the tab surface the sync engine needs. Implementations make
// the actual wire calls (see the gsheets subpackage).
type Worksheet interface {
	Title() string
	// Values returns the full grid as strings, header row first. An empty
	// tab returns an empty slice.
	Values() ([][]string, error)
	WriteHeader(headers []string) error
	BatchUpdateRows(updates []RowUpdate) error
	AppendRows(rows [][]any) error
}

// Spreadsheet hands out worksheets, creating missing tabs.
type Spreadsheet interface {
	Worksheet(title string, cols int) (Worksheet, error)
}

// CellValue projects one canonical field onto a sheet cell: ordered lists
// join with ", ", structured values serialize to JSON, scalars (including
// nil) pass through.
func CellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	return v
}

// ProjectRow renders a keyed row in header order.
func ProjectRow(headers []string, row map[string]any) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = CellValue(row[h])
	}
	return out
}

// renderCell is the canonical string form used to compare a projected value
// with what the sheet currently holds.
func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

// cellEqual compares a sheet cell with a projected value. Sheets normalize
// entered values (booleans uppercase, numbers reformatted), so booleans
// compare case-insensitively and numbers numerically.
func cellEqual(existing string, v any) bool {
	want := renderCell(v)
	got := strings.TrimSpace(existing)
	if got == want {
		return true
	}
	if strings.EqualFold(got, want) {
		switch strings.ToLower(want) {
		case "true", "false":
			return true
		}
	}
	gf, gerr := strconv.ParseFloat(got, 64)
	wf, werr := strconv.ParseFloat(strings.TrimSpace(want), 64)
	if gerr == nil && werr == nil {
		return gf == wf
	}
	return false
}

func rowEqual(existing []string, vals []any) bool {
	for i, v := range vals {
		cell := ""
		if i < len(existing) {
			cell = existing[i]
		}
		if !cellEqual(cell, v) {
			return false
		}
	}
	return true
}
