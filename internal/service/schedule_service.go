package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

var (
	scheduleFilterFields = []string{"class", "day", "teacherId"}
	scheduleSearchFields = []string{"subject"}
)

// CreateScheduleRequest places a subject in a class timetable.
type CreateScheduleRequest struct {
	Class     string `json:"class" validate:"required"`
	Day       string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Period    int    `json:"period" validate:"required,min=1"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacherId"`
	Time      string `json:"time"`
}

// UpdateScheduleRequest is a partial update; nil fields are left unchanged.
type UpdateScheduleRequest struct {
	Class     *string `json:"class" validate:"omitempty,min=1"`
	Day       *string `json:"day" validate:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Period    *int    `json:"period" validate:"omitempty,min=1"`
	Subject   *string `json:"subject" validate:"omitempty,min=1"`
	TeacherID *string `json:"teacherId"`
	Time      *string `json:"time"`
}

// TimetableDay lists the slots of one weekday ordered by period.
type TimetableDay struct {
	Day   string                `json:"day"`
	Slots []models.ScheduleSlot `json:"slots"`
}

// ScheduleService manages timetable slots.
type ScheduleService struct {
	store     *store.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(st *store.Store, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	st.Schedules.GuardRestores(freeSlot)
	return &ScheduleService{store: st, validator: validate, logger: logger}
}

// List returns schedule slots.
func (s *ScheduleService) List(ctx context.Context, params ListParams) ([]models.ScheduleSlot, *models.Pagination, error) {
	items, pagination := listPage(s.store.Schedules, params, scheduleFilterFields, scheduleSearchFields)
	return items, pagination, nil
}

// Get returns a schedule slot.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, err := s.store.Schedules.Get(id)
	if err != nil {
		return nil, translate(err, "schedule slot")
	}
	return &slot, nil
}

// Create adds a slot. A class cannot hold two slots in the same period and a
// teacher cannot teach two classes at once.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.ScheduleSlot, error) {
	if err := validatePayload(s.validator, req, "schedule"); err != nil {
		return nil, err
	}
	slot := models.ScheduleSlot{
		Class:     strings.TrimSpace(req.Class),
		Day:       req.Day,
		Period:    req.Period,
		Subject:   strings.TrimSpace(req.Subject),
		TeacherID: strings.TrimSpace(req.TeacherID),
		Time:      strings.TrimSpace(req.Time),
	}
	if err := s.checkTeacher(slot.TeacherID); err != nil {
		return nil, err
	}
	created, err := s.store.Schedules.Create(ctx, slot, freeSlot)
	if err != nil {
		return nil, translate(err, "schedule slot")
	}
	return &created, nil
}

// Update applies the supplied fields to a slot.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.ScheduleSlot, error) {
	if err := validatePayload(s.validator, req, "schedule"); err != nil {
		return nil, err
	}
	if req.TeacherID != nil {
		if err := s.checkTeacher(strings.TrimSpace(*req.TeacherID)); err != nil {
			return nil, err
		}
	}
	updated, err := s.store.Schedules.Update(ctx, id, func(slot models.ScheduleSlot) (models.ScheduleSlot, error) {
		setString(&slot.Class, req.Class)
		setString(&slot.Day, req.Day)
		if req.Period != nil {
			slot.Period = *req.Period
		}
		setString(&slot.Subject, req.Subject)
		setString(&slot.TeacherID, req.TeacherID)
		setString(&slot.Time, req.Time)
		if slot.Class == "" || slot.Subject == "" {
			return slot, invalid("class and subject are required")
		}
		return slot, nil
	}, freeSlot)
	if err != nil {
		return nil, translate(err, "schedule slot")
	}
	return &updated, nil
}

// Delete moves a slot into the recycle bin.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.SoftDelete(ctx, models.KindSchedule, id); err != nil {
		return translate(err, "schedule slot")
	}
	return nil
}

// Timetable groups the slots of a class by weekday, Monday first, each day
// ordered by period. Days without slots are omitted.
func (s *ScheduleService) Timetable(ctx context.Context, class string) ([]TimetableDay, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return nil, invalid("class is required")
	}
	slots := s.store.Schedules.List(query.Eq("class", class))
	byDay := make(map[string][]models.ScheduleSlot)
	for _, slot := range slots {
		byDay[slot.Day] = append(byDay[slot.Day], slot)
	}
	days := make([]TimetableDay, 0, len(byDay))
	for _, day := range models.Weekdays {
		daySlots, ok := byDay[day]
		if !ok {
			continue
		}
		sort.SliceStable(daySlots, func(i, j int) bool { return daySlots[i].Period < daySlots[j].Period })
		days = append(days, TimetableDay{Day: day, Slots: daySlots})
	}
	return days, nil
}

func (s *ScheduleService) checkTeacher(teacherID string) error {
	if teacherID == "" {
		return nil
	}
	if _, err := s.store.Teachers.Get(teacherID); err != nil {
		if store.IsNotFound(err) {
			return invalid(fmt.Sprintf("teacher %s does not exist", teacherID))
		}
		return translate(err, "teacher")
	}
	return nil
}

func freeSlot(existing []models.ScheduleSlot, candidate models.ScheduleSlot) error {
	for _, slot := range existing {
		if slot.ID == candidate.ID || slot.Day != candidate.Day || slot.Period != candidate.Period {
			continue
		}
		if slot.Class == candidate.Class {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class %s already has period %d on %s", candidate.Class, candidate.Period, candidate.Day))
		}
		if candidate.TeacherID != "" && slot.TeacherID == candidate.TeacherID {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher %s already teaches period %d on %s", candidate.TeacherID, candidate.Period, candidate.Day))
		}
	}
	return nil
}
