package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-modeladmin/pkg/render"
)

// DefaultSheetName names the worksheet when RenderOptions.SheetName is empty.
const DefaultSheetName = "Items"

const defaultSheet = "Sheet1"

// XLSX writes the page into a single worksheet workbook.
type XLSX struct{}

// NewXLSX returns an XLSX renderer.
func NewXLSX() *XLSX {
	return &XLSX{}
}

func (*XLSX) Name() string { return "xlsx" }

func (*XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render implements render.Renderer.
func (*XLSX) Render(ctx context.Context, table render.Table, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet := options.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("export: xlsx sheet %q: %w", sheet, err)
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: xlsx header: %w", err)
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(table.Columns))
		for j, v := range pad(row, len(table.Columns)) {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("export: xlsx row %d: %w", i, err)
		}
	}
	for i, col := range table.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(col, table.Rows, i)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidth sizes a column to its longest cell, clamped to [8, 60].
func columnWidth(col render.Column, rows [][]string, idx int) float64 {
	width := len([]rune(col.Label))
	for _, row := range rows {
		if idx < len(row) {
			width = max(width, len([]rune(row[idx])))
		}
	}
	return float64(min(max(width+2, 8), 60))
}
