package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func TestRecycleServiceRestoresCascade(t *testing.T) {
	st, _ := newRecordStore(t)
	inv := &recordingInvalidator{}
	students := NewStudentService(st, nil, nil, nil)
	fees := NewFeeService(st, nil, nil, nil)
	svc := NewRecycleService(st, inv, nil)
	ctx := context.Background()

	student := seedStudent(t, students, "Asha", "5", "1")
	_, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 100})
	require.NoError(t, err)
	require.NoError(t, students.Delete(ctx, student.ID))

	entries := svc.List(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, models.KindStudent, entries[0].Kind)
	require.NotNil(t, entries[1].ParentEntryID)

	restored, err := svc.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, restored, 2)
	assert.Empty(t, svc.List(ctx))
	assert.Equal(t, 1, inv.all)

	payments, _, err := fees.ListPayments(ctx, ListParams{Filters: map[string]string{"studentId": student.ID}})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRecycleServiceRestoreRespectsUniqueness(t *testing.T) {
	st, _ := newRecordStore(t)
	students := NewStudentService(st, nil, nil, nil)
	attendance := NewAttendanceService(st, nil, nil)
	svc := NewRecycleService(st, nil, nil)
	ctx := context.Background()

	student := seedStudent(t, students, "Asha", "5", "1")
	first, err := attendance.Create(ctx, CreateAttendanceRequest{StudentID: student.ID, Date: "2024-07-01", Status: models.AttendanceStatusPresent})
	require.NoError(t, err)
	require.NoError(t, attendance.Delete(ctx, first.ID))
	_, err = attendance.Create(ctx, CreateAttendanceRequest{StudentID: student.ID, Date: "2024-07-01", Status: models.AttendanceStatusAbsent})
	require.NoError(t, err)

	_, err = svc.Restore(ctx, 0)
	requireCode(t, err, appErrors.ErrConflict)
	assert.Len(t, svc.List(ctx), 1)

	summary, err := attendance.Summary(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	gone := seedStudent(t, students, "Ben", "5", "2")
	require.NoError(t, students.Delete(ctx, gone.ID))
	seedStudent(t, students, "Cara", "5", "2")
	_, err = svc.Restore(ctx, 1)
	requireCode(t, err, appErrors.ErrConflict)
	assert.Len(t, svc.List(ctx), 2)
}

func TestRecycleServiceRestoreErrors(t *testing.T) {
	st, _ := newRecordStore(t)
	students := NewStudentService(st, nil, nil, nil)
	attendance := NewAttendanceService(st, nil, nil)
	svc := NewRecycleService(st, nil, nil)
	ctx := context.Background()

	_, err := svc.Restore(ctx, 0)
	requireCode(t, err, appErrors.ErrNotFound)

	student := seedStudent(t, students, "Asha", "5", "1")
	rec, err := attendance.Create(ctx, CreateAttendanceRequest{StudentID: student.ID, Date: "2024-07-01", Status: models.AttendanceStatusPresent})
	require.NoError(t, err)
	require.NoError(t, attendance.Delete(ctx, rec.ID))
	require.NoError(t, students.Delete(ctx, student.ID))

	_, err = svc.Restore(ctx, 0)
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Restore(ctx, -1)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Restore(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, svc.List(ctx))
}
