package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord marks one student present or absent on a date.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"studentId"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Class     string           `json:"class"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (a AttendanceRecord) RecordID() string { return a.ID }

func (a AttendanceRecord) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return a.ID, true
	case "studentId":
		return a.StudentID, true
	case "date":
		return a.Date, true
	case "status":
		return string(a.Status), true
	case "class":
		return a.Class, true
	}
	return "", false
}

func (a AttendanceRecord) Created(id string, at time.Time) AttendanceRecord {
	a.ID = id
	a.CreatedAt = at
	a.UpdatedAt = at
	return a
}

func (a AttendanceRecord) Updated(at time.Time) AttendanceRecord {
	a.UpdatedAt = at
	return a
}

// AttendanceSummary counts present/absent days.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
