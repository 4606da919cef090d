package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Letterhead is the school block printed at the top of documents.
type Letterhead struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

func (l Letterhead) contactLine() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Address, l.Phone, l.Email} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

// Receipt holds the preformatted values printed on a fee receipt.
type Receipt struct {
	School      Letterhead
	ReceiptNo   string
	Date        string
	StudentName string
	StudentID   string
	Class       string
	Amount      string
	Mode        string
	Status      string
	TotalFees   string
	Paid        string
	Balance     string
}

// ReceiptRenderer prints fee receipts on an A5 page.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render produces the receipt PDF.
func (r *ReceiptRenderer) Render(data Receipt) ([]byte, error) {
	if strings.TrimSpace(data.ReceiptNo) == "" {
		return nil, fmt.Errorf("receipt number required")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, data.School.Name, "", 1, "C", false, 0, "")
	if line := data.School.contactLine(); line != "" {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(0, 5, line, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "FEE RECEIPT", "TB", 1, "C", false, 0, "")
	pdf.Ln(3)

	rows := [][2]string{
		{"Receipt No", data.ReceiptNo},
		{"Date", data.Date},
		{"Student", data.StudentName},
		{"Student ID", data.StudentID},
		{"Class", data.Class},
		{"Amount", data.Amount},
		{"Mode", data.Mode},
		{"Status", strings.ToUpper(data.Status)},
	}
	writePairs(pdf, rows)

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, "Account", "B", 1, "", false, 0, "")
	writePairs(pdf, [][2]string{
		{"Total fees", data.TotalFees},
		{"Paid to date", data.Paid},
		{"Balance", data.Balance},
	})

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func writePairs(pdf *gofpdf.Fpdf, rows [][2]string) {
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(40, 6, row[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, row[1], "", 1, "", false, 0, "")
	}
}
