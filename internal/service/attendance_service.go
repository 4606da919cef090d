package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

var attendanceFilterFields = []string{"studentId", "class", "date", "status"}

// CreateAttendanceRequest marks one student on one day.
type CreateAttendanceRequest struct {
	StudentID string                  `json:"studentId" validate:"required"`
	Date      string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=present absent"`
	Class     string                  `json:"class"`
}

// UpdateAttendanceRequest is a partial update; nil fields are left unchanged.
type UpdateAttendanceRequest struct {
	Date   *string                  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status *models.AttendanceStatus `json:"status" validate:"omitempty,oneof=present absent"`
	Class  *string                  `json:"class"`
}

// AttendanceService manages attendance records.
type AttendanceService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	st.Attendance.GuardRestores(oneMarkPerDay)
	return &AttendanceService{store: st, validator: validate, logger: logger}
}

// List returns attendance records.
func (s *AttendanceService) List(ctx context.Context, params ListParams) ([]models.AttendanceRecord, *models.Pagination, error) {
	items, pagination := listPage(s.store.Attendance, params, attendanceFilterFields, nil)
	return items, pagination, nil
}

// Get returns an attendance record.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	rec, err := s.store.Attendance.Get(id)
	if err != nil {
		return nil, translate(err, "attendance record")
	}
	return &rec, nil
}

// Create records attendance for an existing student. The class defaults to
// the student's current class.
func (s *AttendanceService) Create(ctx context.Context, req CreateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := validatePayload(s.validator, req, "attendance"); err != nil {
		return nil, err
	}
	student, err := requireStudent(s.store, strings.TrimSpace(req.StudentID))
	if err != nil {
		return nil, err
	}
	rec := models.AttendanceRecord{
		StudentID: student.ID,
		Date:      strings.TrimSpace(req.Date),
		Status:    req.Status,
		Class:     strings.TrimSpace(req.Class),
	}
	if rec.Class == "" {
		rec.Class = student.Class
	}
	created, err := s.store.Attendance.Create(ctx, rec, oneMarkPerDay)
	if err != nil {
		return nil, translate(err, "attendance record")
	}
	return &created, nil
}

// Update applies the supplied fields to an attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := validatePayload(s.validator, req, "attendance"); err != nil {
		return nil, err
	}
	updated, err := s.store.Attendance.Update(ctx, id, func(rec models.AttendanceRecord) (models.AttendanceRecord, error) {
		setString(&rec.Date, req.Date)
		setString(&rec.Class, req.Class)
		if req.Status != nil {
			rec.Status = *req.Status
		}
		return rec, nil
	}, oneMarkPerDay)
	if err != nil {
		return nil, translate(err, "attendance record")
	}
	return &updated, nil
}

// Delete moves an attendance record into the recycle bin.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindAttendance, id); err != nil {
		return translate(err, "attendance record")
	}
	return nil
}

// Summary counts a student's present and absent days.
func (s *AttendanceService) Summary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	if _, err := s.store.Students.Get(studentID); err != nil {
		return nil, translate(err, "student")
	}
	records := s.store.Attendance.List(query.Eq("studentId", studentID))
	summary := models.AttendanceSummary{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		}
	}
	if summary.Total > 0 {
		summary.Percent = math.Round(float64(summary.Present)/float64(summary.Total)*10000) / 100
	}
	return &summary, nil
}

func oneMarkPerDay(existing []models.AttendanceRecord, candidate models.AttendanceRecord) error {
	for _, rec := range existing {
		if rec.ID != candidate.ID && rec.StudentID == candidate.StudentID && rec.Date == candidate.Date {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("attendance for student %s on %s already recorded", candidate.StudentID, candidate.Date))
		}
	}
	return nil
}
