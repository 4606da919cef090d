package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	persister := NewMemoryPersister()
	clock := &fixedClock{now: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}
	seq := 0
	s := New(persister, models.Settings{SchoolInfo: models.SchoolInfo{Name: "Green Valley"}},
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, s.Load(context.Background()))
	return s, persister
}

func TestCollectionCreateGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5", Section: "A", RollNo: "1"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := s.Students.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCollectionUpdateIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	created, err := s.Teachers.Create(ctx, models.Teacher{Name: "Mr. Iyer", Subject: "Maths"})
	require.NoError(t, err)

	apply := func(t models.Teacher) (models.Teacher, error) {
		t.Subject = "Physics"
		t.Salary = 42000
		return t, nil
	}
	first, err := s.Teachers.Update(ctx, created.ID, apply)
	require.NoError(t, err)
	second, err := s.Teachers.Update(ctx, created.ID, apply)
	require.NoError(t, err)

	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
	assert.Equal(t, created.CreatedAt, second.CreatedAt)
}

func TestCollectionUpdateMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Staff.Update(context.Background(), "nope", func(st models.Staff) (models.Staff, error) { return st, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionUpdateCannotChangeID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	created, err := s.Staff.Create(ctx, models.Staff{Name: "Ravi"})
	require.NoError(t, err)

	_, err = s.Staff.Update(ctx, created.ID, func(st models.Staff) (models.Staff, error) {
		st.ID = "other"
		return st, nil
	})
	require.Error(t, err)
	got, err := s.Staff.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Name)
}

func TestCollectionGuardVetoesWrite(t *testing.T) {
	s, persister := newTestStore(t)
	veto := errors.New("veto")
	_, err := s.Exams.Create(context.Background(), models.Exam{Subject: "Maths"}, func(existing []models.Exam, candidate models.Exam) error {
		return veto
	})
	assert.ErrorIs(t, err, veto)
	assert.Zero(t, s.Exams.Count())
	assert.Zero(t, persister.Saves())
}

func TestCollectionStorageFailureKeepsPriorState(t *testing.T) {
	s, persister := newTestStore(t)
	ctx := context.Background()
	created, err := s.FeeStructures.Create(ctx, models.FeeStructure{Class: "5", Amount: 1000})
	require.NoError(t, err)

	persister.FailWith = errors.New("disk full")
	_, err = s.FeeStructures.Create(ctx, models.FeeStructure{Class: "6", Amount: 1200})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	_, err = s.FeeStructures.Update(ctx, created.ID, func(f models.FeeStructure) (models.FeeStructure, error) {
		f.Amount = 1
		return f, nil
	})
	require.Error(t, err)

	_, err = s.SoftDelete(ctx, models.KindFeeStructure, created.ID)
	require.Error(t, err)

	all := s.FeeStructures.List(query.Criteria{})
	require.Len(t, all, 1)
	assert.Equal(t, 1000.0, all[0].Amount)
	assert.Empty(t, s.ListDeleted())
}

func TestCollectionDeleteThenGetFails(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	created, err := s.Schedules.Create(ctx, models.ScheduleSlot{Class: "5", Day: "Monday", Period: 1})
	require.NoError(t, err)

	_, err = s.Schedules.Delete(ctx, created.ID)
	require.NoError(t, err)
	_, err = s.Schedules.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Schedules.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudentsListedByClassThenRollNo(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, st := range []models.Student{
		{Name: "d", Class: "10", RollNo: "1"},
		{Name: "c", Class: "5", RollNo: "10"},
		{Name: "a", Class: "5", RollNo: "2"},
		{Name: "b", Class: "6", RollNo: "1"},
	} {
		_, err := s.Students.Create(ctx, st)
		require.NoError(t, err)
	}
	list := s.Students.List(query.Criteria{})
	names := make([]string, len(list))
	for i, st := range list {
		names[i] = st.Name
	}
	assert.Equal(t, []string{"a", "c", "b", "d"}, names)
}

func TestOtherKindsKeepInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"z", "a", "m"} {
		_, err := s.Teachers.Create(ctx, models.Teacher{Name: name})
		require.NoError(t, err)
	}
	list := s.Teachers.List(query.Criteria{})
	require.Len(t, list, 3)
	assert.Equal(t, "z", list[0].Name)
	assert.Equal(t, "m", list[2].Name)
}

func TestLoadRestoresPersistedCollections(t *testing.T) {
	s, persister := newTestStore(t)
	ctx := context.Background()
	created, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5"})
	require.NoError(t, err)
	_, err = s.SoftDelete(ctx, models.KindStudent, created.ID)
	require.NoError(t, err)
	_, err = s.Teachers.Create(ctx, models.Teacher{Name: "Iyer"})
	require.NoError(t, err)

	reloaded := New(persister, models.Settings{})
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 1, reloaded.Teachers.Count())
	assert.Zero(t, reloaded.Students.Count())
	require.Len(t, reloaded.ListDeleted(), 1)
	assert.Equal(t, created.ID, reloaded.ListDeleted()[0].RecordID)
}

func TestSoftDeleteAndRestoreKeepsFieldValues(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	photo := "photos/t1.png"
	created, err := s.Teachers.Create(ctx, models.Teacher{Name: "Iyer", Subject: "Maths", Salary: 30000, Photo: &photo})
	require.NoError(t, err)

	entry, err := s.SoftDelete(ctx, models.KindTeacher, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindTeacher, entry.Kind)
	_, err = s.Teachers.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := s.Restore(ctx, 0)
	require.NoError(t, err)
	require.Len(t, restored, 1)

	got, err := s.Teachers.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt))
	got.UpdatedAt = created.UpdatedAt
	assert.Equal(t, created, got)
	assert.Empty(t, s.ListDeleted())
}

func TestSoftDeleteStudentCascadesAndRestoresTogether(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	student, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5"})
	require.NoError(t, err)
	other, err := s.Students.Create(ctx, models.Student{Name: "Bilal", Class: "5"})
	require.NoError(t, err)
	_, err = s.FeePayments.Create(ctx, models.FeePayment{StudentID: student.ID, InstallmentAmount: 400})
	require.NoError(t, err)
	_, err = s.FeePayments.Create(ctx, models.FeePayment{StudentID: other.ID, InstallmentAmount: 100})
	require.NoError(t, err)
	_, err = s.Attendance.Create(ctx, models.AttendanceRecord{StudentID: student.ID, Date: "2024-07-01", Status: models.AttendanceStatusPresent})
	require.NoError(t, err)
	_, err = s.ExamResults.Create(ctx, models.ExamResult{StudentID: student.ID, ExamID: "e1", Marks: 40, TotalMarks: 50})
	require.NoError(t, err)

	_, err = s.SoftDelete(ctx, models.KindStudent, student.ID)
	require.NoError(t, err)

	bin := s.ListDeleted()
	require.Len(t, bin, 4)
	assert.Equal(t, models.KindStudent, bin[0].Kind)
	for _, e := range bin[1:] {
		require.NotNil(t, e.ParentEntryID)
		assert.Equal(t, bin[0].EntryID, *e.ParentEntryID)
	}
	assert.Equal(t, 1, s.FeePayments.Count())
	assert.Zero(t, s.Attendance.Count())
	assert.Zero(t, s.ExamResults.Count())

	restored, err := s.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, restored, 4)
	assert.Equal(t, 2, s.FeePayments.Count())
	assert.Equal(t, 1, s.Attendance.Count())
	assert.Equal(t, 1, s.ExamResults.Count())
	assert.Empty(t, s.ListDeleted())
}

func TestRestoreDependentWithoutStudentFails(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	student, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5"})
	require.NoError(t, err)
	_, err = s.FeePayments.Create(ctx, models.FeePayment{StudentID: student.ID, InstallmentAmount: 400})
	require.NoError(t, err)
	_, err = s.SoftDelete(ctx, models.KindStudent, student.ID)
	require.NoError(t, err)

	_, err = s.Restore(ctx, 1)
	assert.ErrorIs(t, err, ErrDanglingReference)
	assert.Len(t, s.ListDeleted(), 2)
	assert.Zero(t, s.FeePayments.Count())
}

func TestRestoreStandaloneDependent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	student, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5"})
	require.NoError(t, err)
	payment, err := s.FeePayments.Create(ctx, models.FeePayment{StudentID: student.ID, InstallmentAmount: 400})
	require.NoError(t, err)
	_, err = s.SoftDelete(ctx, models.KindFeePayment, payment.ID)
	require.NoError(t, err)

	_, err = s.Restore(ctx, 0)
	require.NoError(t, err)
	got, err := s.FeePayments.Get(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.InstallmentAmount)
}

func TestRestoreGuardVetoKeepsEntryInBin(t *testing.T) {
	s, persister := newTestStore(t)
	ctx := context.Background()
	exam, err := s.Exams.Create(ctx, models.Exam{Subject: "Maths"})
	require.NoError(t, err)
	_, err = s.SoftDelete(ctx, models.KindExam, exam.ID)
	require.NoError(t, err)
	_, err = s.Exams.Create(ctx, models.Exam{Subject: "Maths"})
	require.NoError(t, err)

	taken := errors.New("subject taken")
	s.Exams.GuardRestores(func(existing []models.Exam, candidate models.Exam) error {
		for _, e := range existing {
			if e.Subject == candidate.Subject {
				return taken
			}
		}
		return nil
	})
	saves := persister.Saves()

	_, err = s.Restore(ctx, 0)
	assert.ErrorIs(t, err, taken)
	assert.Equal(t, 1, s.Exams.Count())
	assert.Len(t, s.ListDeleted(), 1)
	assert.Equal(t, saves, persister.Saves())
}

func TestRestoreOutOfRange(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Restore(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Restore(context.Background(), -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteMissingRecord(t *testing.T) {
	s, persister := newTestStore(t)
	_, err := s.SoftDelete(context.Background(), models.KindExam, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, persister.Saves())
}

func TestSoftDeleteRejectsSettings(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SoftDelete(context.Background(), models.KindSettings, "settings")
	assert.Error(t, err)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	s, persister := newTestStore(t)
	ctx := context.Background()
	assert.Equal(t, "Green Valley", s.Settings().SchoolInfo.Name)

	updated, err := s.UpdateSettings(ctx, func(cur models.Settings) (models.Settings, error) {
		cur.Preferences.Currency = "INR"
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "INR", updated.Preferences.Currency)
	assert.Equal(t, "Green Valley", updated.SchoolInfo.Name)

	reloaded := New(persister, models.Settings{SchoolInfo: models.SchoolInfo{Name: "ignored"}})
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "Green Valley", reloaded.Settings().SchoolInfo.Name)
	assert.Equal(t, "INR", reloaded.Settings().Preferences.Currency)
}

func TestFeeSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	student, err := s.Students.Create(ctx, models.Student{Name: "Asha", Class: "5"})
	require.NoError(t, err)
	_, err = s.FeeStructures.Create(ctx, models.FeeStructure{Class: "5", Amount: 1000})
	require.NoError(t, err)

	got, structures, payments, err := s.FeeSnapshot(student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, got.ID)
	assert.Len(t, structures, 1)
	assert.Empty(t, payments)

	_, _, _, err = s.FeeSnapshot("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
