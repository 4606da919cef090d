package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

// UpdateSettingsRequest is a partial settings update; nil fields are left
// unchanged.
type UpdateSettingsRequest struct {
	SchoolInfo  *SchoolInfoPatch  `json:"schoolInfo"`
	Preferences *PreferencesPatch `json:"preferences"`
	Security    *SecurityPatch    `json:"security"`
}

// SchoolInfoPatch updates school details. The logo is replaced only when a
// non-empty value is supplied.
type SchoolInfoPatch struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Logo    *string `json:"logo"`
}

// PreferencesPatch updates presentation defaults.
type PreferencesPatch struct {
	Currency      *string `json:"currency" validate:"omitempty,len=3"`
	AcademicYear  *string `json:"academicYear"`
	DateFormat    *string `json:"dateFormat"`
	ReceiptPrefix *string `json:"receiptPrefix" validate:"omitempty,alphanum,max=8"`
}

// SecurityPatch updates session knobs.
type SecurityPatch struct {
	SessionTimeoutMinutes  *int  `json:"sessionTimeoutMinutes" validate:"omitempty,min=1,max=1440"`
	RequireStrongPasswords *bool `json:"requireStrongPasswords"`
}

// SettingsService reads and updates the settings singleton.
type SettingsService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: st, validator: validate, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	return s.store.Settings()
}

// Update applies the supplied fields.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*models.Settings, error) {
	if err := validatePayload(s.validator, req, "settings"); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateSettings(ctx, func(cur models.Settings) (models.Settings, error) {
		if p := req.SchoolInfo; p != nil {
			setString(&cur.SchoolInfo.Name, p.Name)
			setString(&cur.SchoolInfo.Address, p.Address)
			setString(&cur.SchoolInfo.Phone, p.Phone)
			setString(&cur.SchoolInfo.Email, p.Email)
			if p.Logo != nil && *p.Logo != "" {
				setString(&cur.SchoolInfo.Logo, p.Logo)
			}
		}
		if p := req.Preferences; p != nil {
			setString(&cur.Preferences.Currency, p.Currency)
			setString(&cur.Preferences.AcademicYear, p.AcademicYear)
			setString(&cur.Preferences.DateFormat, p.DateFormat)
			setString(&cur.Preferences.ReceiptPrefix, p.ReceiptPrefix)
		}
		if p := req.Security; p != nil {
			if p.SessionTimeoutMinutes != nil {
				cur.Security.SessionTimeoutMinutes = *p.SessionTimeoutMinutes
			}
			if p.RequireStrongPasswords != nil {
				cur.Security.RequireStrongPasswords = *p.RequireStrongPasswords
			}
		}
		if cur.SchoolInfo.Name == "" {
			return cur, invalid("school name is required")
		}
		return cur, nil
	})
	if err != nil {
		return nil, translate(err, "settings")
	}
	s.logger.Info("settings updated")
	return &updated, nil
}
