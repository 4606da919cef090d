package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

var (
	examFilterFields       = []string{"class", "subject"}
	examSearchFields       = []string{"subject", "name"}
	examResultFilterFields = []string{"studentId", "examId"}
)

// CreateExamRequest schedules an exam.
type CreateExamRequest struct {
	Name           string  `json:"name"`
	Class          string  `json:"class" validate:"required"`
	Subject        string  `json:"subject" validate:"required"`
	Date           string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TotalMarks     float64 `json:"totalMarks" validate:"gte=0"`
	PaperReference *string `json:"paperReference"`
}

// UpdateExamRequest is a partial update; nil fields are left unchanged. The
// paper reference is replaced only when a non-empty value is supplied.
type UpdateExamRequest struct {
	Name           *string  `json:"name"`
	Class          *string  `json:"class" validate:"omitempty,min=1"`
	Subject        *string  `json:"subject" validate:"omitempty,min=1"`
	Date           *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TotalMarks     *float64 `json:"totalMarks" validate:"omitempty,gte=0"`
	PaperReference *string  `json:"paperReference"`
}

// CreateExamResultRequest records a student's marks. Total marks default to
// the exam's total and the grade is derived when omitted.
type CreateExamResultRequest struct {
	StudentID  string  `json:"studentId" validate:"required"`
	ExamID     string  `json:"examId" validate:"required"`
	Marks      float64 `json:"marks" validate:"gte=0"`
	TotalMarks float64 `json:"totalMarks" validate:"gte=0"`
	Grade      string  `json:"grade"`
}

// UpdateExamResultRequest is a partial update; nil fields are left unchanged.
type UpdateExamResultRequest struct {
	Marks      *float64 `json:"marks" validate:"omitempty,gte=0"`
	TotalMarks *float64 `json:"totalMarks" validate:"omitempty,gt=0"`
	Grade      *string  `json:"grade"`
}

// ExamService manages exams and exam results.
type ExamService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the service.
func NewExamService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	st.ExamResults.GuardRestores(oneResultPerExam)
	return &ExamService{store: st, validator: validate, logger: logger}
}

// List returns exams.
func (s *ExamService) List(ctx context.Context, params ListParams) ([]models.Exam, *models.Pagination, error) {
	items, pagination := listPage(s.store.Exams, params, examFilterFields, examSearchFields)
	return items, pagination, nil
}

// Get returns an exam.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.store.Exams.Get(id)
	if err != nil {
		return nil, translate(err, "exam")
	}
	return &exam, nil
}

// Create schedules an exam. The name defaults to the subject.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := validatePayload(s.validator, req, "exam"); err != nil {
		return nil, err
	}
	exam := models.Exam{
		Name:           strings.TrimSpace(req.Name),
		Class:          strings.TrimSpace(req.Class),
		Subject:        strings.TrimSpace(req.Subject),
		Date:           strings.TrimSpace(req.Date),
		TotalMarks:     req.TotalMarks,
		PaperReference: optionalString(req.PaperReference),
	}
	if exam.Name == "" {
		exam.Name = exam.Subject
	}
	if err := checkExam(exam); err != nil {
		return nil, err
	}
	created, err := s.store.Exams.Create(ctx, exam)
	if err != nil {
		return nil, translate(err, "exam")
	}
	return &created, nil
}

// Update applies the supplied fields to an exam.
func (s *ExamService) Update(ctx context.Context, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := validatePayload(s.validator, req, "exam"); err != nil {
		return nil, err
	}
	updated, err := s.store.Exams.Update(ctx, id, func(e models.Exam) (models.Exam, error) {
		setString(&e.Name, req.Name)
		setString(&e.Class, req.Class)
		setString(&e.Subject, req.Subject)
		setString(&e.Date, req.Date)
		setFloat(&e.TotalMarks, req.TotalMarks)
		setPhoto(&e.PaperReference, req.PaperReference)
		return e, checkExam(e)
	})
	if err != nil {
		return nil, translate(err, "exam")
	}
	return &updated, nil
}

// Delete moves an exam into the recycle bin. Results recorded against it
// stay in place.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindExam, id); err != nil {
		return translate(err, "exam")
	}
	return nil
}

// ListResults returns exam results.
func (s *ExamService) ListResults(ctx context.Context, params ListParams) ([]models.ExamResult, *models.Pagination, error) {
	items, pagination := listPage(s.store.ExamResults, params, examResultFilterFields, nil)
	return items, pagination, nil
}

// GetResult returns an exam result.
func (s *ExamService) GetResult(ctx context.Context, id string) (*models.ExamResult, error) {
	result, err := s.store.ExamResults.Get(id)
	if err != nil {
		return nil, translate(err, "exam result")
	}
	return &result, nil
}

// CreateResult records a result for an existing student and exam.
func (s *ExamService) CreateResult(ctx context.Context, req CreateExamResultRequest) (*models.ExamResult, error) {
	if err := validatePayload(s.validator, req, "exam result"); err != nil {
		return nil, err
	}
	student, err := requireStudent(s.store, strings.TrimSpace(req.StudentID))
	if err != nil {
		return nil, err
	}
	exam, err := s.store.Exams.Get(strings.TrimSpace(req.ExamID))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, invalid(fmt.Sprintf("exam %s does not exist", req.ExamID))
		}
		return nil, translate(err, "exam")
	}
	result := models.ExamResult{
		StudentID:  student.ID,
		ExamID:     exam.ID,
		Marks:      req.Marks,
		TotalMarks: req.TotalMarks,
		Grade:      strings.TrimSpace(req.Grade),
	}
	if result.TotalMarks == 0 {
		result.TotalMarks = exam.TotalMarks
	}
	if err := gradeResult(&result); err != nil {
		return nil, err
	}
	created, err := s.store.ExamResults.Create(ctx, result, oneResultPerExam)
	if err != nil {
		return nil, translate(err, "exam result")
	}
	return &created, nil
}

// UpdateResult applies the supplied fields and re-derives the grade unless
// one is supplied.
func (s *ExamService) UpdateResult(ctx context.Context, id string, req UpdateExamResultRequest) (*models.ExamResult, error) {
	if err := validatePayload(s.validator, req, "exam result"); err != nil {
		return nil, err
	}
	updated, err := s.store.ExamResults.Update(ctx, id, func(r models.ExamResult) (models.ExamResult, error) {
		setFloat(&r.Marks, req.Marks)
		setFloat(&r.TotalMarks, req.TotalMarks)
		if req.Grade != nil {
			r.Grade = strings.TrimSpace(*req.Grade)
		} else if req.Marks != nil || req.TotalMarks != nil {
			r.Grade = ""
		}
		return r, gradeResult(&r)
	})
	if err != nil {
		return nil, translate(err, "exam result")
	}
	return &updated, nil
}

// DeleteResult moves an exam result into the recycle bin.
func (s *ExamService) DeleteResult(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindExamResult, id); err != nil {
		return translate(err, "exam result")
	}
	return nil
}

func checkExam(e models.Exam) error {
	if e.Class == "" {
		return invalid("class is required")
	}
	if e.Subject == "" {
		return invalid("subject is required")
	}
	return nil
}

func gradeResult(r *models.ExamResult) error {
	if r.TotalMarks <= 0 {
		return invalid("totalMarks must be greater than zero")
	}
	if r.Marks > r.TotalMarks {
		return invalid("marks cannot exceed totalMarks")
	}
	if r.Grade == "" {
		r.Grade = models.LetterGrade(r.Marks, r.TotalMarks)
	}
	return nil
}

func oneResultPerExam(existing []models.ExamResult, candidate models.ExamResult) error {
	for _, r := range existing {
		if r.ID != candidate.ID && r.StudentID == candidate.StudentID && r.ExamID == candidate.ExamID {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("result for student %s in exam %s already recorded", candidate.StudentID, candidate.ExamID))
		}
	}
	return nil
}
