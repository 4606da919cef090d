package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders datasets as a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes a bold header row followed by one row per record. Cells are
// stored as text so nothing is evaluated as a formula.
func (e *XLSXExporter) Render(data Dataset, sheet string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	if sheet == "" {
		sheet = defaultSheet
	}
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}

	f := excelize.NewFile()
	defer f.Close()
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("name sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for j, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write xlsx header: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style xlsx header: %w", err)
	}

	for i := range data.Rows {
		for j, value := range data.Record(i) {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write xlsx row %d: %w", i, err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("size xlsx columns: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
