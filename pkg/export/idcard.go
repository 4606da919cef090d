package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ID-1 card size in millimetres.
const (
	cardWidth  = 85.6
	cardHeight = 53.98
)

// IDCard holds the values printed on a student identity card.
type IDCard struct {
	School           Letterhead
	AcademicYear     string
	Name             string
	StudentID        string
	ClassSection     string
	RollNo           string
	BloodGroup       string
	EmergencyContact string
}

// IDCardRenderer prints student identity cards.
type IDCardRenderer struct{}

// NewIDCardRenderer constructs an ID card renderer.
func NewIDCardRenderer() *IDCardRenderer {
	return &IDCardRenderer{}
}

// Render produces a single card-sized PDF page.
func (r *IDCardRenderer) Render(card IDCard) ([]byte, error) {
	if strings.TrimSpace(card.Name) == "" {
		return nil, fmt.Errorf("student name required")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFillColor(30, 64, 120)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(0, 7, card.School.Name, "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, card.Name, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 7)
	for _, row := range [][2]string{
		{"ID", card.StudentID},
		{"Class", card.ClassSection},
		{"Roll No", card.RollNo},
		{"Blood Group", card.BloodGroup},
		{"Emergency", card.EmergencyContact},
	} {
		pdf.CellFormat(20, 4, row[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 4, row[1], "", 1, "", false, 0, "")
	}
	if card.AcademicYear != "" {
		pdf.SetY(cardHeight - 8)
		pdf.SetFont("Arial", "I", 6)
		pdf.CellFormat(0, 4, "Valid for "+card.AcademicYear, "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render id card: %w", err)
	}
	return buf.Bytes(), nil
}
