package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/iafilius/FixtureCharts/src/types"
)

const workbookSheet = "fixtures"

// recordColumns returns the union of record keys with "id" first and the rest sorted.
func recordColumns(records []types.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i] == "id" || cols[j] == "id" {
			return cols[i] == "id"
		}
		return cols[i] < cols[j]
	})
	return cols
}

// WriteWorkbook stores records as a single-sheet spreadsheet with a header row.
func (w *Writer) WriteWorkbook(records []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("workbook sheet: %w", err)
	}
	cols := recordColumns(records)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(workbookSheet, "A1", &header); err != nil {
		return fmt.Errorf("workbook header: %w", err)
	}
	for i, r := range records {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = r[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(workbookSheet, cell, &row); err != nil {
			return fmt.Errorf("workbook row %d: %w", i+1, err)
		}
	}
	return w.writeAtomic(WorkbookName, func(out io.Writer) error {
		return f.Write(out)
	})
}
