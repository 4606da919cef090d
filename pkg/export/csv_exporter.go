package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Dataset is tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns row i in header order.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	for j, header := range d.Headers {
		record[j] = d.Rows[i][header]
	}
	return record
}

// CSVExporter renders datasets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes. Cells that a spreadsheet would evaluate as a
// formula are prefixed with a single quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i := range data.Rows {
		record := data.Record(i)
		for j, cell := range record {
			record[j] = neutralize(cell)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralize(cell string) string {
	if cell == "" {
		return cell
	}
	if strings.ContainsRune("=+-@", rune(cell[0])) {
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			return cell
		}
		return "'" + cell
	}
	return cell
}
