package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Tables wider than this many columns are printed in landscape.
const landscapeColumns = 6

// PDFExporter renders datasets as a paginated table.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates the table with an optional title. The header row repeats on
// every page and each page carries a footer with the page number.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", 190.0
	if len(data.Headers) > landscapeColumns {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	generated := e.now().UTC().Format("2006-01-02 15:04 UTC")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s - page %d", generated, pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	colWidth := width / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, fit(pdf, h, colWidth), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()
	for i := range data.Rows {
		for _, value := range data.Record(i) {
			pdf.CellFormat(colWidth, 7, fit(pdf, value, colWidth), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(width, 8, "No records", "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fit truncates text so it stays inside a cell of the given width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
