package models

import "time"

// Exam is a scheduled paper for a class and subject.
type Exam struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Class          string    `json:"class"`
	Subject        string    `json:"subject"`
	Date           string    `json:"date"`
	TotalMarks     float64   `json:"totalMarks"`
	PaperReference *string   `json:"paperReference,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (e Exam) RecordID() string { return e.ID }

func (e Exam) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return e.ID, true
	case "name":
		return e.Name, true
	case "class":
		return e.Class, true
	case "subject":
		return e.Subject, true
	case "date":
		return e.Date, true
	}
	return "", false
}

func (e Exam) Created(id string, at time.Time) Exam {
	e.ID = id
	e.CreatedAt = at
	e.UpdatedAt = at
	return e
}

func (e Exam) Updated(at time.Time) Exam {
	e.UpdatedAt = at
	return e
}

// ExamResult is one student's score on one exam.
type ExamResult struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"studentId"`
	ExamID     string    `json:"examId"`
	Marks      float64   `json:"marks"`
	TotalMarks float64   `json:"totalMarks"`
	Grade      string    `json:"grade"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r ExamResult) RecordID() string { return r.ID }

func (r ExamResult) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return r.ID, true
	case "studentId":
		return r.StudentID, true
	case "examId":
		return r.ExamID, true
	case "grade":
		return r.Grade, true
	}
	return "", false
}

func (r ExamResult) Created(id string, at time.Time) ExamResult {
	r.ID = id
	r.CreatedAt = at
	r.UpdatedAt = at
	return r
}

func (r ExamResult) Updated(at time.Time) ExamResult {
	r.UpdatedAt = at
	return r
}

// LetterGrade maps a percentage score to a letter grade.
func LetterGrade(marks, total float64) string {
	if total <= 0 {
		return ""
	}
	pct := marks / total * 100
	switch {
	case pct >= 90:
		return "A+"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	case pct >= 50:
		return "D"
	default:
		return "F"
	}
}
