package service

import (
	"context"
	"sort"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
	"github.com/noah-isme/school-records-api/internal/store"
)

// DirectoryService derives the distinct values offered by list filters.
type DirectoryService struct {
	store *store.Store
}

// NewDirectoryService constructs the service.
func NewDirectoryService(st *store.Store) *DirectoryService {
	return &DirectoryService{store: st}
}

// Options returns the classes, sections, subjects and departments currently
// in use. Numeric values sort first, by value.
func (s *DirectoryService) Options(ctx context.Context) models.DirectoryOptions {
	var all query.Criteria
	students := s.store.Students.List(all)
	teachers := s.store.Teachers.List(all)
	structures := s.store.FeeStructures.List(all)
	exams := s.store.Exams.List(all)
	schedules := s.store.Schedules.List(all)

	return models.DirectoryOptions{
		Classes: union(
			query.Distinct(students, "class"),
			query.Distinct(structures, "class"),
			query.Distinct(exams, "class"),
			query.Distinct(schedules, "class"),
		),
		Sections: query.Distinct(students, "section"),
		Subjects: union(
			query.Distinct(teachers, "subject"),
			query.Distinct(exams, "subject"),
			query.Distinct(schedules, "subject"),
		),
		Departments: query.Distinct(s.store.Staff.List(all), "department"),
	}
}

func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return query.NaturalLess(out[i], out[j]) })
	return out
}
