package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

var (
	teacherFilterFields = []string{"subject"}
	teacherSearchFields = []string{"name", "subject"}
)

// CreateTeacherRequest captures payload for creating teachers.
type CreateTeacherRequest struct {
	Name        string  `json:"name" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	Contact     string  `json:"contact"`
	JoiningDate string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	Salary      float64 `json:"salary" validate:"gte=0"`
	Photo       *string `json:"photo"`
}

// UpdateTeacherRequest is a partial update; nil fields are left unchanged.
type UpdateTeacherRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Subject     *string  `json:"subject" validate:"omitempty,min=1"`
	Contact     *string  `json:"contact"`
	JoiningDate *string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	Salary      *float64 `json:"salary" validate:"omitempty,gte=0"`
	Photo       *string  `json:"photo"`
}

// TeacherService manages teacher records.
type TeacherService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService builds the service.
func NewTeacherService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{store: st, validator: validate, logger: logger}
}

// List returns teachers in insertion order.
func (s *TeacherService) List(ctx context.Context, params ListParams) ([]models.Teacher, *models.Pagination, error) {
	teachers, pagination := listPage(s.store.Teachers, params, teacherFilterFields, teacherSearchFields)
	return teachers, pagination, nil
}

// Get fetches teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.store.Teachers.Get(id)
	if err != nil {
		return nil, translate(err, "teacher")
	}
	return &teacher, nil
}

// Create registers a teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := validatePayload(s.validator, req, "teacher"); err != nil {
		return nil, err
	}
	teacher := models.Teacher{
		Name:        strings.TrimSpace(req.Name),
		Subject:     strings.TrimSpace(req.Subject),
		Contact:     strings.TrimSpace(req.Contact),
		JoiningDate: strings.TrimSpace(req.JoiningDate),
		Salary:      req.Salary,
		Photo:       optionalString(req.Photo),
	}
	if err := checkTeacher(teacher); err != nil {
		return nil, err
	}
	created, err := s.store.Teachers.Create(ctx, teacher)
	if err != nil {
		return nil, translate(err, "teacher")
	}
	return &created, nil
}

// Update applies the supplied fields to a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := validatePayload(s.validator, req, "teacher"); err != nil {
		return nil, err
	}
	updated, err := s.store.Teachers.Update(ctx, id, func(t models.Teacher) (models.Teacher, error) {
		setString(&t.Name, req.Name)
		setString(&t.Subject, req.Subject)
		setString(&t.Contact, req.Contact)
		setString(&t.JoiningDate, req.JoiningDate)
		setFloat(&t.Salary, req.Salary)
		setPhoto(&t.Photo, req.Photo)
		return t, checkTeacher(t)
	})
	if err != nil {
		return nil, translate(err, "teacher")
	}
	return &updated, nil
}

// Delete moves the teacher into the recycle bin.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindTeacher, id); err != nil {
		return translate(err, "teacher")
	}
	return nil
}

func checkTeacher(t models.Teacher) error {
	if t.Name == "" {
		return invalid("name is required")
	}
	if t.Subject == "" {
		return invalid("subject is required")
	}
	return nil
}

var (
	staffFilterFields = []string{"department", "role"}
	staffSearchFields = []string{"name", "role"}
)

// CreateStaffRequest captures payload for creating non-teaching staff.
type CreateStaffRequest struct {
	Name       string  `json:"name" validate:"required"`
	Role       string  `json:"role" validate:"required"`
	Department string  `json:"department"`
	Contact    string  `json:"contact"`
	Salary     float64 `json:"salary" validate:"gte=0"`
	JoinDate   string  `json:"joinDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateStaffRequest is a partial update; nil fields are left unchanged.
type UpdateStaffRequest struct {
	Name       *string  `json:"name" validate:"omitempty,min=1"`
	Role       *string  `json:"role" validate:"omitempty,min=1"`
	Department *string  `json:"department"`
	Contact    *string  `json:"contact"`
	Salary     *float64 `json:"salary" validate:"omitempty,gte=0"`
	JoinDate   *string  `json:"joinDate" validate:"omitempty,datetime=2006-01-02"`
}

// StaffService manages staff records.
type StaffService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService builds the service.
func NewStaffService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{store: st, validator: validate, logger: logger}
}

// List returns staff in insertion order.
func (s *StaffService) List(ctx context.Context, params ListParams) ([]models.Staff, *models.Pagination, error) {
	staff, pagination := listPage(s.store.Staff, params, staffFilterFields, staffSearchFields)
	return staff, pagination, nil
}

// Get fetches a staff member by ID.
func (s *StaffService) Get(ctx context.Context, id string) (*models.Staff, error) {
	member, err := s.store.Staff.Get(id)
	if err != nil {
		return nil, translate(err, "staff member")
	}
	return &member, nil
}

// Create registers a staff member.
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest) (*models.Staff, error) {
	if err := validatePayload(s.validator, req, "staff"); err != nil {
		return nil, err
	}
	member := models.Staff{
		Name:       strings.TrimSpace(req.Name),
		Role:       strings.TrimSpace(req.Role),
		Department: strings.TrimSpace(req.Department),
		Contact:    strings.TrimSpace(req.Contact),
		Salary:     req.Salary,
		JoinDate:   strings.TrimSpace(req.JoinDate),
	}
	if err := checkStaff(member); err != nil {
		return nil, err
	}
	created, err := s.store.Staff.Create(ctx, member)
	if err != nil {
		return nil, translate(err, "staff member")
	}
	return &created, nil
}

// Update applies the supplied fields to a staff member.
func (s *StaffService) Update(ctx context.Context, id string, req UpdateStaffRequest) (*models.Staff, error) {
	if err := validatePayload(s.validator, req, "staff"); err != nil {
		return nil, err
	}
	updated, err := s.store.Staff.Update(ctx, id, func(m models.Staff) (models.Staff, error) {
		setString(&m.Name, req.Name)
		setString(&m.Role, req.Role)
		setString(&m.Department, req.Department)
		setString(&m.Contact, req.Contact)
		setFloat(&m.Salary, req.Salary)
		setString(&m.JoinDate, req.JoinDate)
		return m, checkStaff(m)
	})
	if err != nil {
		return nil, translate(err, "staff member")
	}
	return &updated, nil
}

// Delete moves the staff member into the recycle bin.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindStaff, id); err != nil {
		return translate(err, "staff member")
	}
	return nil
}

func checkStaff(m models.Staff) error {
	if m.Name == "" {
		return invalid("name is required")
	}
	if m.Role == "" {
		return invalid("role is required")
	}
	return nil
}
