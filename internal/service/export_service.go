package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
	"github.com/noah-isme/school-records-api/pkg/export"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Document is a rendered file ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type sheetRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

type receiptRenderer interface {
	Render(data export.Receipt) ([]byte, error)
}

type cardRenderer interface {
	Render(card export.IDCard) ([]byte, error)
}

// ExportService renders receipts, ID cards and list exports.
type ExportService struct {
	store   *store.Store
	fees    *FeeService
	csv     csvRenderer
	pdf     pdfRenderer
	xlsx    sheetRenderer
	receipt receiptRenderer
	card    cardRenderer
	logger  *zap.Logger
	clock   func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the pkg/export implementations.
func NewExportService(st *store.Store, fees *FeeService, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		store:   st,
		fees:    fees,
		csv:     csv,
		pdf:     pdf,
		xlsx:    export.NewXLSXExporter(),
		receipt: export.NewReceiptRenderer(),
		card:    export.NewIDCardRenderer(),
		logger:  logger,
		clock:   time.Now,
	}
}

// Receipt renders the fee receipt of a payment.
func (s *ExportService) Receipt(ctx context.Context, paymentID string) (*Document, error) {
	r, err := s.fees.Receipt(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	currency := r.Prefs.Currency
	payload, err := s.receipt.Render(export.Receipt{
		School:      letterhead(r.School),
		ReceiptNo:   r.Payment.ReceiptNo,
		Date:        r.Payment.PaymentDate,
		StudentName: r.Student.Name,
		StudentID:   r.Student.StudentID,
		Class:       classSection(r.Student),
		Amount:      money(r.Payment.InstallmentAmount, currency),
		Mode:        r.Payment.Mode,
		Status:      string(r.Payment.Status),
		TotalFees:   money(r.Ledger.TotalFees, currency),
		Paid:        money(r.Ledger.Paid, currency),
		Balance:     money(r.Ledger.Pending, currency),
	})
	if err != nil {
		return nil, translate(err, "receipt")
	}
	return &Document{
		Filename:    sanitizeFilename("receipt_"+r.Payment.ReceiptNo) + ".pdf",
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

// IDCard renders the identity card of a student.
func (s *ExportService) IDCard(ctx context.Context, studentID string) (*Document, error) {
	student, err := s.store.Students.Get(studentID)
	if err != nil {
		return nil, translate(err, "student")
	}
	settings := s.store.Settings()
	payload, err := s.card.Render(export.IDCard{
		School:           letterhead(settings.SchoolInfo),
		AcademicYear:     settings.Preferences.AcademicYear,
		Name:             student.Name,
		StudentID:        student.StudentID,
		ClassSection:     classSection(student),
		RollNo:           student.RollNo,
		BloodGroup:       student.BloodGroup,
		EmergencyContact: student.EmergencyContact,
	})
	if err != nil {
		return nil, translate(err, "id card")
	}
	return &Document{
		Filename:    sanitizeFilename("id_card_"+student.StudentID) + ".pdf",
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

// Export renders every record of kind matching params' filters and search.
// Pagination is ignored.
func (s *ExportService) Export(ctx context.Context, kind models.Kind, format string, params ListParams) (*Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF && format != FormatXLSX {
		return nil, invalid(fmt.Sprintf("unsupported export format %q", format))
	}
	dataset, title, err := s.buildDataset(kind, params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	contentType := "text/csv"
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(dataset)
	case FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	case FormatXLSX:
		payload, err = s.xlsx.Render(dataset, string(kind))
		contentType = xlsxContentType
	}
	if err != nil {
		return nil, translate(err, "export")
	}
	s.logger.Debug("list exported",
		zap.String("kind", string(kind)),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &Document{
		Filename:    s.buildFilename(kind, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func (s *ExportService) buildFilename(kind models.Kind, format string) string {
	timestamp := s.clock().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(string(kind)), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(kind models.Kind, params ListParams) (export.Dataset, string, error) {
	switch kind {
	case models.KindStudent:
		return studentDataset(s.store.Students.List(params.Criteria(studentFilterFields, studentSearchFields))), "Students", nil
	case models.KindTeacher:
		return teacherDataset(s.store.Teachers.List(params.Criteria(teacherFilterFields, teacherSearchFields))), "Teachers", nil
	case models.KindStaff:
		return staffDataset(s.store.Staff.List(params.Criteria(staffFilterFields, staffSearchFields))), "Staff", nil
	case models.KindFeeStructure:
		return feeStructureDataset(s.store.FeeStructures.List(params.Criteria(feeStructureFilterFields, feeStructureSearchFields))), "Fee Structures", nil
	case models.KindFeePayment:
		return feePaymentDataset(s.store.FeePayments.List(params.Criteria(feePaymentFilterFields, feePaymentSearchFields))), "Fee Payments", nil
	case models.KindAttendance:
		return attendanceDataset(s.store.Attendance.List(params.Criteria(attendanceFilterFields, nil))), "Attendance", nil
	case models.KindExam:
		return examDataset(s.store.Exams.List(params.Criteria(examFilterFields, examSearchFields))), "Exams", nil
	case models.KindExamResult:
		return examResultDataset(s.store.ExamResults.List(params.Criteria(examResultFilterFields, nil))), "Exam Results", nil
	case models.KindSchedule:
		return scheduleDataset(s.store.Schedules.List(params.Criteria(scheduleFilterFields, scheduleSearchFields))), "Schedules", nil
	default:
		return export.Dataset{}, "", invalid(fmt.Sprintf("kind %q cannot be exported", kind))
	}
}

func studentDataset(items []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, st := range items {
		rows = append(rows, map[string]string{
			"Student ID":  st.StudentID,
			"Name":        st.Name,
			"Class":       st.Class,
			"Section":     st.Section,
			"Roll No":     st.RollNo,
			"Parent":      st.ParentName,
			"Contact":     st.ParentContact,
			"Blood Group": st.BloodGroup,
		})
	}
	return export.Dataset{
		Headers: []string{"Student ID", "Name", "Class", "Section", "Roll No", "Parent", "Contact", "Blood Group"},
		Rows:    rows,
	}
}

func teacherDataset(items []models.Teacher) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, map[string]string{
			"Name":         t.Name,
			"Subject":      t.Subject,
			"Contact":      t.Contact,
			"Joining Date": t.JoiningDate,
			"Salary":       amount(t.Salary),
		})
	}
	return export.Dataset{
		Headers: []string{"Name", "Subject", "Contact", "Joining Date", "Salary"},
		Rows:    rows,
	}
}

func staffDataset(items []models.Staff) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, m := range items {
		rows = append(rows, map[string]string{
			"Name":       m.Name,
			"Role":       m.Role,
			"Department": m.Department,
			"Contact":    m.Contact,
			"Join Date":  m.JoinDate,
			"Salary":     amount(m.Salary),
		})
	}
	return export.Dataset{
		Headers: []string{"Name", "Role", "Department", "Contact", "Join Date", "Salary"},
		Rows:    rows,
	}
}

func feeStructureDataset(items []models.FeeStructure) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, fs := range items {
		rows = append(rows, map[string]string{
			"Class":       fs.Class,
			"Description": fs.Description,
			"Amount":      amount(fs.Amount),
		})
	}
	return export.Dataset{Headers: []string{"Class", "Description", "Amount"}, Rows: rows}
}

func feePaymentDataset(items []models.FeePayment) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, p := range items {
		rows = append(rows, map[string]string{
			"Receipt No": p.ReceiptNo,
			"Student":    p.StudentID,
			"Date":       p.PaymentDate,
			"Amount":     amount(p.InstallmentAmount),
			"Mode":       p.Mode,
			"Status":     string(p.Status),
		})
	}
	return export.Dataset{
		Headers: []string{"Receipt No", "Student", "Date", "Amount", "Mode", "Status"},
		Rows:    rows,
	}
}

func attendanceDataset(items []models.AttendanceRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, map[string]string{
			"Date":    a.Date,
			"Student": a.StudentID,
			"Class":   a.Class,
			"Status":  string(a.Status),
		})
	}
	return export.Dataset{Headers: []string{"Date", "Student", "Class", "Status"}, Rows: rows}
}

func examDataset(items []models.Exam) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, map[string]string{
			"Name":        e.Name,
			"Class":       e.Class,
			"Subject":     e.Subject,
			"Date":        e.Date,
			"Total Marks": amount(e.TotalMarks),
		})
	}
	return export.Dataset{Headers: []string{"Name", "Class", "Subject", "Date", "Total Marks"}, Rows: rows}
}

func examResultDataset(items []models.ExamResult) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, map[string]string{
			"Student":     r.StudentID,
			"Exam":        r.ExamID,
			"Marks":       amount(r.Marks),
			"Total Marks": amount(r.TotalMarks),
			"Grade":       r.Grade,
		})
	}
	return export.Dataset{Headers: []string{"Student", "Exam", "Marks", "Total Marks", "Grade"}, Rows: rows}
}

func scheduleDataset(items []models.ScheduleSlot) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, sl := range items {
		rows = append(rows, map[string]string{
			"Class":   sl.Class,
			"Day":     sl.Day,
			"Period":  strconv.Itoa(sl.Period),
			"Time":    sl.Time,
			"Subject": sl.Subject,
			"Teacher": sl.TeacherID,
		})
	}
	return export.Dataset{Headers: []string{"Class", "Day", "Period", "Time", "Subject", "Teacher"}, Rows: rows}
}

func letterhead(info models.SchoolInfo) export.Letterhead {
	return export.Letterhead{Name: info.Name, Address: info.Address, Phone: info.Phone, Email: info.Email}
}

func classSection(st models.Student) string {
	if st.Section == "" {
		return st.Class
	}
	return st.Class + "-" + st.Section
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func money(v float64, currency string) string {
	if currency == "" {
		return amount(v)
	}
	return currency + " " + amount(v)
}
