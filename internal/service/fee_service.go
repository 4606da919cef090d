package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/ledger"
	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

const defaultReceiptPrefix = "RCT"

var (
	feeStructureFilterFields = []string{"class"}
	feeStructureSearchFields = []string{"description"}
	feePaymentFilterFields   = []string{"studentId", "status", "mode"}
	feePaymentSearchFields   = []string{"receiptNo"}
)

// CreateFeeStructureRequest defines the expected fee for a class.
type CreateFeeStructureRequest struct {
	Class       string  `json:"class" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Description string  `json:"description"`
}

// UpdateFeeStructureRequest is a partial update; nil fields are left unchanged.
type UpdateFeeStructureRequest struct {
	Class       *string  `json:"class" validate:"omitempty,min=1"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	Description *string  `json:"description"`
}

// CreateFeePaymentRequest records one installment.
type CreateFeePaymentRequest struct {
	StudentID         string               `json:"studentId" validate:"required"`
	InstallmentAmount float64              `json:"installmentAmount" validate:"gt=0"`
	PaymentDate       string               `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
	Mode              string               `json:"mode" validate:"omitempty,oneof=cash card bank online cheque"`
	Status            models.PaymentStatus `json:"status" validate:"omitempty,oneof=pending paid overdue"`
}

// UpdateFeePaymentRequest is a partial update; nil fields are left unchanged.
type UpdateFeePaymentRequest struct {
	StudentID         *string               `json:"studentId" validate:"omitempty,min=1"`
	InstallmentAmount *float64              `json:"installmentAmount" validate:"omitempty,gt=0"`
	PaymentDate       *string               `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
	Mode              *string               `json:"mode" validate:"omitempty,oneof=cash card bank online cheque"`
	Status            *models.PaymentStatus `json:"status" validate:"omitempty,oneof=pending paid overdue"`
}

// Receipt bundles what a printed fee receipt shows.
type Receipt struct {
	Payment models.FeePayment  `json:"payment"`
	Student models.Student     `json:"student"`
	Ledger  models.FeeLedger   `json:"ledger"`
	School  models.SchoolInfo  `json:"school"`
	Prefs   models.Preferences `json:"preferences"`
}

// FeeService manages fee structures and payments and derives ledgers.
type FeeService struct {
	store     *store.Store
	cache     *LedgerCache
	validator *validator.Validate
	logger    *zap.Logger
	receipts  *sequence
	clock     func() time.Time
}

// NewFeeService constructs the fee service. cache may be nil.
func NewFeeService(st *store.Store, cache *LedgerCache, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		store:     st,
		cache:     cache,
		validator: validate,
		logger:    logger,
		receipts:  newSequence(defaultReceiptPrefix, time.Now),
		clock:     time.Now,
	}
}

// ListStructures returns fee structures.
func (s *FeeService) ListStructures(ctx context.Context, params ListParams) ([]models.FeeStructure, *models.Pagination, error) {
	items, pagination := listPage(s.store.FeeStructures, params, feeStructureFilterFields, feeStructureSearchFields)
	return items, pagination, nil
}

// GetStructure returns a fee structure.
func (s *FeeService) GetStructure(ctx context.Context, id string) (*models.FeeStructure, error) {
	fs, err := s.store.FeeStructures.Get(id)
	if err != nil {
		return nil, translate(err, "fee structure")
	}
	return &fs, nil
}

// CreateStructure adds a fee structure.
func (s *FeeService) CreateStructure(ctx context.Context, req CreateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := validatePayload(s.validator, req, "fee structure"); err != nil {
		return nil, err
	}
	fs := models.FeeStructure{
		Class:       strings.TrimSpace(req.Class),
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
	}
	if fs.Class == "" {
		return nil, invalid("class is required")
	}
	created, err := s.store.FeeStructures.Create(ctx, fs)
	if err != nil {
		return nil, translate(err, "fee structure")
	}
	s.cache.InvalidateAll(ctx)
	return &created, nil
}

// UpdateStructure applies the supplied fields to a fee structure.
func (s *FeeService) UpdateStructure(ctx context.Context, id string, req UpdateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := validatePayload(s.validator, req, "fee structure"); err != nil {
		return nil, err
	}
	updated, err := s.store.FeeStructures.Update(ctx, id, func(fs models.FeeStructure) (models.FeeStructure, error) {
		setString(&fs.Class, req.Class)
		setFloat(&fs.Amount, req.Amount)
		setString(&fs.Description, req.Description)
		if fs.Class == "" {
			return fs, invalid("class is required")
		}
		return fs, nil
	})
	if err != nil {
		return nil, translate(err, "fee structure")
	}
	s.cache.InvalidateAll(ctx)
	return &updated, nil
}

// DeleteStructure moves a fee structure into the recycle bin.
func (s *FeeService) DeleteStructure(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindFeeStructure, id); err != nil {
		return translate(err, "fee structure")
	}
	s.cache.InvalidateAll(ctx)
	return nil
}

// ListPayments returns fee payments.
func (s *FeeService) ListPayments(ctx context.Context, params ListParams) ([]models.FeePayment, *models.Pagination, error) {
	items, pagination := listPage(s.store.FeePayments, params, feePaymentFilterFields, feePaymentSearchFields)
	return items, pagination, nil
}

// GetPayment returns a fee payment.
func (s *FeeService) GetPayment(ctx context.Context, id string) (*models.FeePayment, error) {
	p, err := s.store.FeePayments.Get(id)
	if err != nil {
		return nil, translate(err, "fee payment")
	}
	return &p, nil
}

// CreatePayment records an installment for an existing student and issues a
// receipt number.
func (s *FeeService) CreatePayment(ctx context.Context, req CreateFeePaymentRequest) (*models.FeePayment, error) {
	if err := validatePayload(s.validator, req, "fee payment"); err != nil {
		return nil, err
	}
	studentID := strings.TrimSpace(req.StudentID)
	if _, err := requireStudent(s.store, studentID); err != nil {
		return nil, err
	}
	payment := models.FeePayment{
		StudentID:         studentID,
		InstallmentAmount: req.InstallmentAmount,
		PaymentDate:       strings.TrimSpace(req.PaymentDate),
		Mode:              strings.TrimSpace(req.Mode),
		Status:            req.Status,
		ReceiptNo:         s.receipts.nextWithPrefix(s.receiptPrefix()),
	}
	if payment.PaymentDate == "" {
		payment.PaymentDate = s.clock().UTC().Format("2006-01-02")
	}
	if payment.Mode == "" {
		payment.Mode = "cash"
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPaid
	}
	created, err := s.store.FeePayments.Create(ctx, payment)
	if err != nil {
		return nil, translate(err, "fee payment")
	}
	s.cache.InvalidateStudents(ctx, created.StudentID)
	s.logger.Info("fee payment recorded",
		zap.String("student_id", created.StudentID),
		zap.String("receipt_no", created.ReceiptNo),
		zap.Float64("amount", created.InstallmentAmount),
	)
	return &created, nil
}

// UpdatePayment applies the supplied fields to a fee payment.
func (s *FeeService) UpdatePayment(ctx context.Context, id string, req UpdateFeePaymentRequest) (*models.FeePayment, error) {
	if err := validatePayload(s.validator, req, "fee payment"); err != nil {
		return nil, err
	}
	if req.StudentID != nil {
		if _, err := requireStudent(s.store, strings.TrimSpace(*req.StudentID)); err != nil {
			return nil, err
		}
	}
	var previous string
	updated, err := s.store.FeePayments.Update(ctx, id, func(p models.FeePayment) (models.FeePayment, error) {
		previous = p.StudentID
		setString(&p.StudentID, req.StudentID)
		setFloat(&p.InstallmentAmount, req.InstallmentAmount)
		setString(&p.PaymentDate, req.PaymentDate)
		setString(&p.Mode, req.Mode)
		if req.Status != nil {
			p.Status = *req.Status
		}
		return p, nil
	})
	if err != nil {
		return nil, translate(err, "fee payment")
	}
	s.cache.InvalidateStudents(ctx, previous, updated.StudentID)
	return &updated, nil
}

// DeletePayment moves a fee payment into the recycle bin.
func (s *FeeService) DeletePayment(ctx context.Context, id string) error {
	payment, err := s.store.FeePayments.Get(id)
	if err != nil {
		return translate(err, "fee payment")
	}
	if _, err := s.store.SoftDelete(ctx, models.KindFeePayment, id); err != nil {
		return translate(err, "fee payment")
	}
	s.cache.InvalidateStudents(ctx, payment.StudentID)
	return nil
}

// ComputeFeeStatus returns the fee ledger of a student.
func (s *FeeService) ComputeFeeStatus(ctx context.Context, studentID string) (*models.FeeLedger, error) {
	if cached, ok := s.cache.Get(ctx, studentID); ok {
		return &cached, nil
	}
	generation := s.cache.Generation()
	student, structures, payments, err := s.store.FeeSnapshot(studentID)
	if err != nil {
		return nil, translate(err, "student")
	}
	result := ledger.Compute(student, structures, payments)
	s.cache.Put(ctx, result, generation)
	return &result, nil
}

// Summary totals the ledgers of every active student.
func (s *FeeService) Summary(ctx context.Context) (*models.FeeSummary, error) {
	students, structures, payments := s.store.FeeBook()
	summary := ledger.Summarize(ledger.ComputeAll(students, structures, payments))
	return &summary, nil
}

// Receipt gathers the data printed on the receipt of a payment.
func (s *FeeService) Receipt(ctx context.Context, paymentID string) (*Receipt, error) {
	payment, err := s.store.FeePayments.Get(paymentID)
	if err != nil {
		return nil, translate(err, "fee payment")
	}
	student, structures, payments, err := s.store.FeeSnapshot(payment.StudentID)
	if err != nil {
		return nil, translate(err, "student")
	}
	settings := s.store.Settings()
	return &Receipt{
		Payment: payment,
		Student: student,
		Ledger:  ledger.Compute(student, structures, payments),
		School:  settings.SchoolInfo,
		Prefs:   settings.Preferences,
	}, nil
}

func (s *FeeService) receiptPrefix() string {
	if prefix := strings.TrimSpace(s.store.Settings().Preferences.ReceiptPrefix); prefix != "" {
		return prefix
	}
	return defaultReceiptPrefix
}
