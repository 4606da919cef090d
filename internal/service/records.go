package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

// ListParams carries the list filters accepted by every record kind.
type ListParams struct {
	Filters  map[string]string
	Search   string
	Page     int
	PageSize int
}

// Criteria turns the params into query criteria restricted to filterFields.
func (p ListParams) Criteria(filterFields, searchFields []string) query.Criteria {
	return query.FromParams(p.Filters, filterFields...).And(query.Contains(p.Search, searchFields...))
}

func listPage[T store.Entity[T]](c *store.Collection[T], params ListParams, filterFields, searchFields []string) ([]T, *models.Pagination) {
	return query.Paginate(c.List(params.Criteria(filterFields, searchFields)), params.Page, params.PageSize)
}

// ledgerInvalidator drops cached fee ledgers after fee related writes.
type ledgerInvalidator interface {
	InvalidateStudents(ctx context.Context, studentIDs ...string)
	InvalidateAll(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateStudents(context.Context, ...string) {}
func (noopInvalidator) InvalidateAll(context.Context)                 {}

func validatePayload(v *validator.Validate, payload interface{}, subject string) error {
	if err := v.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s payload", subject))
	}
	return nil
}

func invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

// translate maps store failures onto API errors. Errors that are already typed
// pass through untouched.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, store.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, subject+" not found")
	case errors.Is(err, store.ErrConflict):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, subject+" already exists")
	case errors.Is(err, store.ErrDanglingReference):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "referenced student is not active")
	case store.IsStorageError(err):
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist "+subject)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process "+subject)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// setPhoto replaces the photo only when a non-empty value was supplied.
func setPhoto(dst **string, src *string) {
	if src == nil {
		return
	}
	trimmed := strings.TrimSpace(*src)
	if trimmed == "" {
		return
	}
	*dst = &trimmed
}

func optionalString(src *string) *string {
	if src == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*src)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// sequence issues prefixed, strictly increasing numbers derived from the
// clock in milliseconds, e.g. STU1719820800000.
type sequence struct {
	prefix string
	clock  func() time.Time

	mu   sync.Mutex
	last int64
}

func newSequence(prefix string, clock func() time.Time) *sequence {
	if clock == nil {
		clock = time.Now
	}
	return &sequence{prefix: prefix, clock: clock}
}

func (s *sequence) next() string {
	return s.nextWithPrefix(s.prefix)
}

func (s *sequence) nextWithPrefix(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.clock().UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return fmt.Sprintf("%s%d", prefix, n)
}

// requireStudent fails with a validation error when studentID is not an
// active student.
func requireStudent(st *store.Store, studentID string) (models.Student, error) {
	student, err := st.Students.Get(studentID)
	if err != nil {
		if store.IsNotFound(err) {
			return models.Student{}, invalid(fmt.Sprintf("student %s does not exist", studentID))
		}
		return models.Student{}, translate(err, "student")
	}
	return student, nil
}
