// Package query filters in-memory record lists by exact field matches and
// case-insensitive substring search. Every function is pure: inputs are
// never mutated and input order is preserved.
package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/school-records-api/internal/models"
)

// Fielder exposes named text fields of a record.
type Fielder interface {
	Lookup(field string) (string, bool)
}

// Match requires Field to equal Value exactly.
type Match struct {
	Field string
	Value string
}

// Search requires Term to appear, ignoring case, in at least one of Fields.
type Search struct {
	Term   string
	Fields []string
}

// Criteria is a conjunction of matches and searches. The zero value matches
// every record.
type Criteria struct {
	Matches  []Match
	Searches []Search
}

// Eq builds criteria requiring field == value.
func Eq(field, value string) Criteria {
	return Criteria{Matches: []Match{{Field: field, Value: strings.TrimSpace(value)}}}
}

// Contains builds criteria requiring term in any of fields. A blank term
// yields empty criteria.
func Contains(term string, fields ...string) Criteria {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return Criteria{}
	}
	return Criteria{Searches: []Search{{Term: term, Fields: append([]string(nil), fields...)}}}
}

// FromParams builds equality criteria for every non-blank value, restricted to
// the allowed field names.
func FromParams(params map[string]string, allowed ...string) Criteria {
	var c Criteria
	for _, field := range allowed {
		value := strings.TrimSpace(params[field])
		if value == "" {
			continue
		}
		c.Matches = append(c.Matches, Match{Field: field, Value: value})
	}
	return c
}

// And returns the conjunction of c and others.
func (c Criteria) And(others ...Criteria) Criteria {
	out := Criteria{
		Matches:  append([]Match(nil), c.Matches...),
		Searches: append([]Search(nil), c.Searches...),
	}
	for _, o := range others {
		out.Matches = append(out.Matches, o.Matches...)
		out.Searches = append(out.Searches, o.Searches...)
	}
	return out
}

// IsZero reports whether c matches everything.
func (c Criteria) IsZero() bool {
	return len(c.Matches) == 0 && len(c.Searches) == 0
}

// Accepts reports whether record satisfies every match and search.
// Unknown field names never match.
func (c Criteria) Accepts(record Fielder) bool {
	for _, m := range c.Matches {
		value, ok := record.Lookup(m.Field)
		if !ok || value != m.Value {
			return false
		}
	}
	for _, s := range c.Searches {
		if !s.accepts(record) {
			return false
		}
	}
	return true
}

func (s Search) accepts(record Fielder) bool {
	needle := strings.ToLower(s.Term)
	for _, field := range s.Fields {
		value, ok := record.Lookup(field)
		if ok && strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

// Filter returns a new slice with the records accepted by c.
func Filter[T Fielder](records []T, c Criteria) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Accepts(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the sorted unique non-blank values of field.
func Distinct[T Fielder](records []T, field string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		value, ok := r.Lookup(field)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.SliceStable(values, func(i, j int) bool { return NaturalLess(values[i], values[j]) })
	return values
}

// NaturalLess orders numeric strings by value and everything else
// lexically, so class "5" sorts before class "10".
func NaturalLess(a, b string) bool {
	ai, aErr := strconv.Atoi(strings.TrimSpace(a))
	bi, bErr := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	}
	return a < b
}

// Paginate returns the requested window and its metadata. Page defaults to 1;
// sizes outside 1..100 fall back to 20. Pages past the end yield an empty window.
func Paginate[T any](records []T, page, size int) ([]T, *models.Pagination) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	total := len(records)
	start := total
	if page-1 <= total/size {
		start = (page - 1) * size
	}
	end := start + size
	if end > total {
		end = total
	}
	window := make([]T, end-start)
	copy(window, records[start:end])
	return window, &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
