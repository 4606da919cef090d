package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/export"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type capturePDF struct {
	data  export.Dataset
	title string
}

func (c *capturePDF) Render(data export.Dataset, title string) ([]byte, error) {
	c.data = data
	c.title = title
	return []byte("%PDF-stub"), nil
}

type captureReceipt struct {
	got export.Receipt
}

func (c *captureReceipt) Render(data export.Receipt) ([]byte, error) {
	c.got = data
	return []byte("%PDF-receipt"), nil
}

type failingCSV struct{}

func (failingCSV) Render(export.Dataset) ([]byte, error) {
	return nil, errors.New("writer closed")
}

func newExportFixture(t *testing.T) (*ExportService, *StudentService, *FeeService) {
	t.Helper()
	st, _ := newRecordStore(t)
	fees := NewFeeService(st, nil, nil, nil)
	svc := NewExportService(st, fees, nil, nil, nil)
	svc.clock = func() time.Time { return time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC) }
	return svc, NewStudentService(st, nil, nil, nil), fees
}

func TestExportServiceCSV(t *testing.T) {
	svc, students, _ := newExportFixture(t)
	ctx := context.Background()
	seedStudent(t, students, "Asha", "5", "1")
	seedStudent(t, students, "=HYPERLINK()", "6", "1")

	doc, err := svc.Export(ctx, models.KindStudent, "CSV", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Equal(t, "students_20240701_093000.csv", doc.Filename)

	records, err := csv.NewReader(bytes.NewReader(doc.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Student ID", records[0][0])
	assert.Equal(t, "Asha", records[1][1])
	assert.Equal(t, "'=HYPERLINK()", records[2][1])

	filtered, err := svc.Export(ctx, models.KindStudent, "", ListParams{Filters: map[string]string{"class": "5"}, Page: 9})
	require.NoError(t, err)
	records, err = csv.NewReader(bytes.NewReader(filtered.Data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExportServicePDFUsesRenderer(t *testing.T) {
	svc, _, fees := newExportFixture(t)
	pdf := &capturePDF{}
	svc.pdf = pdf
	ctx := context.Background()
	_, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 1250.5, Description: "Tuition"})
	require.NoError(t, err)

	doc, err := svc.Export(ctx, models.KindFeeStructure, "pdf", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "Fee Structures", pdf.title)
	require.Len(t, pdf.data.Rows, 1)
	assert.Equal(t, "1250.50", pdf.data.Rows[0]["Amount"])
}

func TestExportServiceXLSX(t *testing.T) {
	svc, students, _ := newExportFixture(t)
	ctx := context.Background()
	seedStudent(t, students, "Asha", "5", "1")
	seedStudent(t, students, "=HYPERLINK()", "6", "1")

	doc, err := svc.Export(ctx, models.KindStudent, "xlsx", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "students_20240701_093000.xlsx", doc.Filename)
	assert.Equal(t, xlsxContentType, doc.ContentType)

	book, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(string(models.KindStudent))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Student ID", rows[0][0])
	assert.Equal(t, "Asha", rows[1][1])
	assert.Equal(t, "=HYPERLINK()", rows[2][1])

	formula, err := book.GetCellFormula(string(models.KindStudent), "B3")
	require.NoError(t, err)
	assert.Empty(t, formula)
}

func TestExportServiceRejectsUnknownInput(t *testing.T) {
	svc, _, _ := newExportFixture(t)
	ctx := context.Background()

	_, err := svc.Export(ctx, models.KindStudent, "docx", ListParams{})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Export(ctx, models.KindSettings, "csv", ListParams{})
	requireCode(t, err, appErrors.ErrValidation)

	svc.csv = failingCSV{}
	_, err = svc.Export(ctx, models.KindTeacher, "csv", ListParams{})
	requireCode(t, err, appErrors.ErrInternal)
}

func TestExportServiceReceipt(t *testing.T) {
	svc, students, fees := newExportFixture(t)
	capture := &captureReceipt{}
	svc.receipt = capture
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")
	_, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 1000})
	require.NoError(t, err)
	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 400, Mode: "card"})
	require.NoError(t, err)

	doc, err := svc.Receipt(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "receipt_"+payment.ReceiptNo+".pdf", doc.Filename)
	assert.Equal(t, "Green Valley School", capture.got.School.Name)
	assert.Equal(t, "USD 400.00", capture.got.Amount)
	assert.Equal(t, "USD 600.00", capture.got.Balance)
	assert.Equal(t, "5-A", capture.got.Class)
	assert.Equal(t, "card", capture.got.Mode)

	_, err = svc.Receipt(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestExportServiceRendersRealPDFs(t *testing.T) {
	svc, students, fees := newExportFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")
	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 50})
	require.NoError(t, err)

	receipt, err := svc.Receipt(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(receipt.Data, []byte("%PDF")))

	card, err := svc.IDCard(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(card.Data, []byte("%PDF")))
	assert.Equal(t, "id_card_"+student.StudentID+".pdf", card.Filename)

	_, err = svc.IDCard(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
}
