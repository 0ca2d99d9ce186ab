package mirror

import (
	"fmt"
	"log"
	"slices"
	"strings"
)

// UpsertRows pushes keyed rows into a worksheet. Rows whose key matches an
// existing sheet row become targeted updates (skipped when the sheet already
// holds identical values, which makes a repeat push a no-op); everything
// else appends. Writes flush in batchSize chunks and any write failure
// propagates — partially applied batches are possible and the caller is
// expected to resume rather than roll back.
func UpsertRows(ws Worksheet, headers []string, rows []map[string]any, key string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	keyIdx := slices.Index(headers, key)
	if keyIdx < 0 {
		return fmt.Errorf("sheet %s: key column %q not in headers", ws.Title(), key)
	}

	grid, err := ws.Values()
	if err != nil {
		return fmt.Errorf("sheet %s: read: %w", ws.Title(), err)
	}

	// Keep the declared schema authoritative. Rewriting a mismatched header
	// realigns columns destructively; out-of-band columns the editor added
	// are not preserved.
	rewritten := false
	if len(grid) == 0 || len(grid[0]) == 0 {
		if err := ws.WriteHeader(headers); err != nil {
			return fmt.Errorf("sheet %s: write header: %w", ws.Title(), err)
		}
	} else if !slices.Equal(grid[0], headers) {
		log.Printf("[sheets] %s: header mismatch, rewriting (destructive realignment)", ws.Title())
		if err := ws.WriteHeader(headers); err != nil {
			return fmt.Errorf("sheet %s: rewrite header: %w", ws.Title(), err)
		}
		rewritten = true
	}

	// Key value -> 1-based row position, valid for this pass only.
	index := make(map[string]int)
	for i := 1; i < len(grid); i++ {
		if keyIdx >= len(grid[i]) {
			continue
		}
		if v := strings.TrimSpace(grid[i][keyIdx]); v != "" {
			index[v] = i + 1
		}
	}

	var updates []RowUpdate
	var appends [][]any
	for _, row := range rows {
		keyVal := renderCell(CellValue(row[key]))
		if keyVal == "" {
			continue
		}
		vals := ProjectRow(headers, row)
		target, found := index[keyVal]
		switch {
		case !found:
			appends = append(appends, vals)
		case rewritten || !rowEqual(grid[target-1], vals):
			updates = append(updates, RowUpdate{Row: target, Values: vals})
		}
	}

	for chunk := range slices.Chunk(updates, batchSize) {
		if err := ws.BatchUpdateRows(chunk); err != nil {
			return fmt.Errorf("sheet %s: batch update (%d rows): %w", ws.Title(), len(chunk), err)
		}
	}
	for chunk := range slices.Chunk(appends, batchSize) {
		if err := ws.AppendRows(chunk); err != nil {
			return fmt.Errorf("sheet %s: append (%d rows): %w", ws.Title(), len(chunk), err)
		}
	}
	return nil
}

// Records reads all data rows keyed by header name. Missing trailing cells
// read as empty strings; fully empty rows are skipped.
func Records(ws Worksheet) ([]map[string]string, error) {
	grid, err := ws.Values()
	if err != nil {
		return nil, fmt.Errorf("sheet %s: read: %w", ws.Title(), err)
	}
	if len(grid) < 2 {
		return nil, nil
	}
	headers := grid[0]
	var out []map[string]string
	for _, row := range grid[1:] {
		rec := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if cell != "" {
				empty = false
			}
			rec[h] = cell
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return out, nil
}
