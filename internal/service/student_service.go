package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

var (
	studentFilterFields = []string{"class", "section"}
	studentSearchFields = []string{"name", "rollNo", "studentId"}
)

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	StudentID        string  `json:"studentId"`
	Name             string  `json:"name" validate:"required"`
	DOB              string  `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Class            string  `json:"class" validate:"required"`
	Section          string  `json:"section"`
	RollNo           string  `json:"rollNo"`
	ParentName       string  `json:"parentName"`
	ParentContact    string  `json:"parentContact"`
	Address          string  `json:"address"`
	BloodGroup       string  `json:"bloodGroup" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact string  `json:"emergencyContact"`
	Photo            *string `json:"photo"`
}

// UpdateStudentRequest is a partial update; nil fields are left unchanged.
type UpdateStudentRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1"`
	DOB              *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Class            *string `json:"class" validate:"omitempty,min=1"`
	Section          *string `json:"section"`
	RollNo           *string `json:"rollNo"`
	ParentName       *string `json:"parentName"`
	ParentContact    *string `json:"parentContact"`
	Address          *string `json:"address"`
	BloodGroup       *string `json:"bloodGroup" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact *string `json:"emergencyContact"`
	Photo            *string `json:"photo"`
}

// StudentService handles student use-cases.
type StudentService struct {
	store     *store.Store
	ledger    ledgerInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	ids       *sequence
}

// NewStudentService constructs the student service.
func NewStudentService(st *store.Store, ledger ledgerInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if ledger == nil {
		ledger = noopInvalidator{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	st.Students.GuardRestores(uniqueStudentID, uniqueRollNo)
	return &StudentService{store: st, ledger: ledger, validator: validate, logger: logger, ids: newSequence("STU", time.Now)}
}

// List returns students ordered by class then roll number.
func (s *StudentService) List(ctx context.Context, params ListParams) ([]models.Student, *models.Pagination, error) {
	students, pagination := listPage(s.store.Students, params, studentFilterFields, studentSearchFields)
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.store.Students.Get(id)
	if err != nil {
		return nil, translate(err, "student")
	}
	return &student, nil
}

// Create registers a new student. The external student id is generated when
// not supplied.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := validatePayload(s.validator, req, "student"); err != nil {
		return nil, err
	}
	student := models.Student{
		StudentID:        strings.TrimSpace(req.StudentID),
		Name:             strings.TrimSpace(req.Name),
		DOB:              strings.TrimSpace(req.DOB),
		Class:            strings.TrimSpace(req.Class),
		Section:          strings.TrimSpace(req.Section),
		RollNo:           strings.TrimSpace(req.RollNo),
		ParentName:       strings.TrimSpace(req.ParentName),
		ParentContact:    strings.TrimSpace(req.ParentContact),
		Address:          strings.TrimSpace(req.Address),
		BloodGroup:       strings.TrimSpace(req.BloodGroup),
		EmergencyContact: strings.TrimSpace(req.EmergencyContact),
		Photo:            optionalString(req.Photo),
	}
	if student.StudentID == "" {
		student.StudentID = s.ids.next()
	}
	if err := checkStudent(student); err != nil {
		return nil, err
	}
	created, err := s.store.Students.Create(ctx, student, uniqueStudentID, uniqueRollNo)
	if err != nil {
		return nil, translate(err, "student")
	}
	s.logger.Debug("student created", zap.String("id", created.ID), zap.String("student_id", created.StudentID))
	return &created, nil
}

// Update applies the supplied fields to an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := validatePayload(s.validator, req, "student"); err != nil {
		return nil, err
	}
	updated, err := s.store.Students.Update(ctx, id, func(st models.Student) (models.Student, error) {
		setString(&st.Name, req.Name)
		setString(&st.DOB, req.DOB)
		setString(&st.Class, req.Class)
		setString(&st.Section, req.Section)
		setString(&st.RollNo, req.RollNo)
		setString(&st.ParentName, req.ParentName)
		setString(&st.ParentContact, req.ParentContact)
		setString(&st.Address, req.Address)
		setString(&st.BloodGroup, req.BloodGroup)
		setString(&st.EmergencyContact, req.EmergencyContact)
		setPhoto(&st.Photo, req.Photo)
		return st, checkStudent(st)
	}, uniqueRollNo)
	if err != nil {
		return nil, translate(err, "student")
	}
	if req.Class != nil {
		s.ledger.InvalidateStudents(ctx, id)
	}
	return &updated, nil
}

// Delete moves the student and their fee payments, attendance and exam
// results into the recycle bin.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindStudent, id); err != nil {
		return translate(err, "student")
	}
	s.ledger.InvalidateStudents(ctx, id)
	return nil
}

func checkStudent(st models.Student) error {
	if st.Name == "" {
		return invalid("name is required")
	}
	if st.Class == "" {
		return invalid("class is required")
	}
	return nil
}

func uniqueStudentID(existing []models.Student, candidate models.Student) error {
	for _, st := range existing {
		if st.ID != candidate.ID && st.StudentID == candidate.StudentID {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student id %s already used", candidate.StudentID))
		}
	}
	return nil
}

// uniqueRollNo keeps roll numbers unique within a class section.
func uniqueRollNo(existing []models.Student, candidate models.Student) error {
	if candidate.RollNo == "" {
		return nil
	}
	for _, st := range existing {
		if st.ID == candidate.ID {
			continue
		}
		if st.Class == candidate.Class && st.Section == candidate.Section && st.RollNo == candidate.RollNo {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("roll number %s already used in class %s section %s", candidate.RollNo, candidate.Class, candidate.Section))
		}
	}
	return nil
}
