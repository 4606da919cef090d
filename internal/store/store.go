// Package store holds every record collection in memory and writes whole
// collections through an injected Persister. A mutation becomes visible only
// after its documents were saved, so a failed save never leaves a partial
// write behind.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
)

// StudentRefField links dependent records to their student.
const StudentRefField = "studentId"

// cascades lists the kinds that follow a student into the recycle bin.
var cascades = map[models.Kind][]models.Kind{
	models.KindStudent: {models.KindFeePayment, models.KindAttendance, models.KindExamResult},
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator overrides record and recycle entry id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store is the process-wide record keeper. Construct it once at startup with
// New, call Load, and share the pointer.
type Store struct {
	persister Persister
	clock     func() time.Time
	newID     func() string
	defaults  models.Settings

	Students      *Collection[models.Student]
	Teachers      *Collection[models.Teacher]
	Staff         *Collection[models.Staff]
	FeeStructures *Collection[models.FeeStructure]
	FeePayments   *Collection[models.FeePayment]
	Attendance    *Collection[models.AttendanceRecord]
	Exams         *Collection[models.Exam]
	ExamResults   *Collection[models.ExamResult]
	Schedules     *Collection[models.ScheduleSlot]

	settings *settingsDoc
	bin      *recycleBin
}

// New wires the collections to persister. defaults seed Settings until an
// update is saved.
func New(persister Persister, defaults models.Settings, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		defaults:  defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Students = newCollection(models.KindStudent, s, studentOrder)
	s.Teachers = newCollection[models.Teacher](models.KindTeacher, s, nil)
	s.Staff = newCollection[models.Staff](models.KindStaff, s, nil)
	s.FeeStructures = newCollection[models.FeeStructure](models.KindFeeStructure, s, nil)
	s.FeePayments = newCollection[models.FeePayment](models.KindFeePayment, s, nil)
	s.Attendance = newCollection[models.AttendanceRecord](models.KindAttendance, s, nil)
	s.Exams = newCollection[models.Exam](models.KindExam, s, nil)
	s.ExamResults = newCollection[models.ExamResult](models.KindExamResult, s, nil)
	s.Schedules = newCollection[models.ScheduleSlot](models.KindSchedule, s, nil)
	s.settings = &settingsDoc{persister: persister, value: defaults}
	s.bin = &recycleBin{persister: persister, entries: make([]models.RecycleEntry, 0)}
	return s
}

func studentOrder(a, b models.Student) bool {
	if a.Class != b.Class {
		return query.NaturalLess(a.Class, b.Class)
	}
	return query.NaturalLess(a.RollNo, b.RollNo)
}

// Load reads every collection from the persister, in models.Kinds order.
func (s *Store) Load(ctx context.Context) error {
	loaders := []func(context.Context) error{
		s.Students.load,
		s.Teachers.load,
		s.Staff.load,
		s.FeeStructures.load,
		s.FeePayments.load,
		s.Attendance.load,
		s.Exams.load,
		s.ExamResults.load,
		s.Schedules.load,
		func(ctx context.Context) error { return s.settings.load(ctx, s.defaults) },
		s.bin.load,
	}
	for _, load := range loaders {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) collection(kind models.Kind) (collection, bool) {
	switch kind {
	case models.KindStudent:
		return s.Students, true
	case models.KindTeacher:
		return s.Teachers, true
	case models.KindStaff:
		return s.Staff, true
	case models.KindFeeStructure:
		return s.FeeStructures, true
	case models.KindFeePayment:
		return s.FeePayments, true
	case models.KindAttendance:
		return s.Attendance, true
	case models.KindExam:
		return s.Exams, true
	case models.KindExamResult:
		return s.ExamResults, true
	case models.KindSchedule:
		return s.Schedules, true
	}
	return nil, false
}

type locker interface {
	Kind() models.Kind
	lock()
	unlock()
}

// lockAll write-locks the given collections in kind order and returns the
// matching unlock function.
func lockAll(lockers ...locker) func() {
	sort.Slice(lockers, func(i, j int) bool { return lockers[i].Kind().Order() < lockers[j].Kind().Order() })
	for _, l := range lockers {
		l.lock()
	}
	return func() {
		for i := len(lockers) - 1; i >= 0; i-- {
			lockers[i].unlock()
		}
	}
}

func (s *Store) commit(ctx context.Context, steps []staged) error {
	docs := make([]Document, 0, len(steps))
	kinds := make([]models.Kind, 0, len(steps))
	for _, st := range steps {
		docs = append(docs, st.doc)
		kinds = append(kinds, st.doc.Kind)
	}
	if err := s.persister.Save(ctx, docs...); err != nil {
		return &StorageError{Op: "save", Kinds: kinds, Err: err}
	}
	for _, st := range steps {
		st.commit()
	}
	return nil
}

// SoftDelete moves the record into the recycle bin. Deleting a student also
// moves its fee payments, attendance and exam results; those entries point at
// the student entry through ParentEntryID. The returned entry is the one for
// the requested record.
func (s *Store) SoftDelete(ctx context.Context, kind models.Kind, id string) (models.RecycleEntry, error) {
	target, ok := s.collection(kind)
	if !ok {
		return models.RecycleEntry{}, fmt.Errorf("kind %q cannot be deleted", kind)
	}
	deps := make([]collection, 0, len(cascades[kind]))
	lockers := []locker{target, s.bin}
	for _, depKind := range cascades[kind] {
		dep, _ := s.collection(depKind)
		deps = append(deps, dep)
		lockers = append(lockers, dep)
	}
	unlock := lockAll(lockers...)
	defer unlock()

	targetStage, raw, err := target.stageRemoveRaw(id)
	if err != nil {
		return models.RecycleEntry{}, err
	}
	now := s.clock()
	entry := models.RecycleEntry{
		EntryID:   s.newID(),
		Kind:      kind,
		RecordID:  id,
		Record:    raw,
		DeletedAt: now,
	}
	entries := []models.RecycleEntry{entry}
	steps := []staged{targetStage}
	for _, dep := range deps {
		st, removed, err := dep.stageRemoveWhere(StudentRefField, id)
		if err != nil {
			return models.RecycleEntry{}, err
		}
		if len(removed) == 0 {
			continue
		}
		steps = append(steps, st)
		for _, r := range removed {
			parent := entry.EntryID
			entries = append(entries, models.RecycleEntry{
				EntryID:       s.newID(),
				Kind:          dep.Kind(),
				RecordID:      r.id,
				Record:        r.raw,
				DeletedAt:     now,
				ParentEntryID: &parent,
			})
		}
	}
	binStage, err := s.bin.stageAppend(entries...)
	if err != nil {
		return models.RecycleEntry{}, err
	}
	steps = append(steps, binStage)
	if err := s.commit(ctx, steps); err != nil {
		return models.RecycleEntry{}, err
	}
	return entry, nil
}

// ListDeleted returns recycle bin entries, oldest first. The position in the
// slice is the index accepted by Restore.
func (s *Store) ListDeleted() []models.RecycleEntry {
	return s.bin.list()
}

// Restore puts the entry at index back into its collection together with any
// entries cascaded from it, and removes them from the bin. It returns the
// restored entries, parent first.
func (s *Store) Restore(ctx context.Context, index int) ([]models.RecycleEntry, error) {
	peek := s.bin.list()
	if index < 0 || index >= len(peek) {
		return nil, ErrNotFound
	}
	entryID := peek[index].EntryID
	group := restoreGroup(peek, entryID)

	lockers := []locker{s.bin}
	seen := map[models.Kind]bool{}
	needsStudent := false
	for _, e := range group {
		if seen[e.Kind] {
			continue
		}
		seen[e.Kind] = true
		c, ok := s.collection(e.Kind)
		if !ok {
			return nil, fmt.Errorf("recycle entry %s has unknown kind %q", e.EntryID, e.Kind)
		}
		lockers = append(lockers, c)
	}
	if !seen[models.KindStudent] && hasStudentRef(group[0].Kind) {
		needsStudent = true
		lockers = append(lockers, s.Students)
	}
	unlock := lockAll(lockers...)
	defer unlock()

	// The bin may have changed between the peek and the lock.
	current := restoreGroup(s.bin.entries, entryID)
	if len(current) == 0 {
		return nil, ErrNotFound
	}
	if needsStudent {
		if err := s.checkStudentRef(current[0]); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	byKind := map[models.Kind][]json.RawMessage{}
	order := []models.Kind{}
	drop := make(map[string]struct{}, len(current))
	for _, e := range current {
		if _, ok := byKind[e.Kind]; !ok {
			order = append(order, e.Kind)
		}
		byKind[e.Kind] = append(byKind[e.Kind], e.Record)
		drop[e.EntryID] = struct{}{}
	}
	steps := make([]staged, 0, len(order)+1)
	for _, kind := range order {
		c, _ := s.collection(kind)
		st, err := c.stageInsert(byKind[kind], now)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	binStage, err := s.bin.stageRemove(drop)
	if err != nil {
		return nil, err
	}
	steps = append(steps, binStage)
	if err := s.commit(ctx, steps); err != nil {
		return nil, err
	}
	return current, nil
}

func restoreGroup(entries []models.RecycleEntry, entryID string) []models.RecycleEntry {
	var group []models.RecycleEntry
	for _, e := range entries {
		if e.EntryID == entryID {
			group = append([]models.RecycleEntry{e}, group...)
			continue
		}
		if e.ParentEntryID != nil && *e.ParentEntryID == entryID {
			group = append(group, e)
		}
	}
	if len(group) > 0 && group[0].EntryID != entryID {
		return nil
	}
	return group
}

func hasStudentRef(kind models.Kind) bool {
	for _, dep := range cascades[models.KindStudent] {
		if dep == kind {
			return true
		}
	}
	return false
}

// checkStudentRef runs with s.Students locked.
func (s *Store) checkStudentRef(entry models.RecycleEntry) error {
	var ref struct {
		StudentID string `json:"studentId"`
	}
	if err := json.Unmarshal(entry.Record, &ref); err != nil {
		return &StorageError{Op: "decode", Kinds: []models.Kind{entry.Kind}, Err: err}
	}
	if !s.Students.has(ref.StudentID) {
		return fmt.Errorf("%s %s: %w", entry.Kind, entry.RecordID, ErrDanglingReference)
	}
	return nil
}

// Settings returns the current settings.
func (s *Store) Settings() models.Settings {
	return s.settings.get()
}

// UpdateSettings applies mutate and persists the result.
func (s *Store) UpdateSettings(ctx context.Context, mutate func(models.Settings) (models.Settings, error)) (models.Settings, error) {
	return s.settings.update(ctx, mutate, s.clock)
}

// FeeSnapshot reads a student with the fee structures of their class and
// their payments as of one point in time.
func (s *Store) FeeSnapshot(studentID string) (models.Student, []models.FeeStructure, []models.FeePayment, error) {
	s.Students.rlock()
	s.FeeStructures.rlock()
	s.FeePayments.rlock()
	defer s.FeePayments.runlock()
	defer s.FeeStructures.runlock()
	defer s.Students.runlock()

	idx := s.Students.indexOf(studentID)
	if idx < 0 {
		return models.Student{}, nil, nil, ErrNotFound
	}
	return s.Students.items[idx], s.FeeStructures.snapshot(), s.FeePayments.snapshot(), nil
}

// FeeBook reads every student, fee structure and payment as of one point in time.
func (s *Store) FeeBook() ([]models.Student, []models.FeeStructure, []models.FeePayment) {
	s.Students.rlock()
	s.FeeStructures.rlock()
	s.FeePayments.rlock()
	defer s.FeePayments.runlock()
	defer s.FeeStructures.runlock()
	defer s.Students.runlock()
	return s.Students.snapshot(), s.FeeStructures.snapshot(), s.FeePayments.snapshot()
}

// IsNotFound reports whether err means the target record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
