package models

import (
	"strconv"
	"time"
)

// Weekdays lists the accepted values for ScheduleSlot.Day.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ScheduleSlot is one period of a class timetable.
type ScheduleSlot struct {
	ID        string    `json:"id"`
	Class     string    `json:"class"`
	Day       string    `json:"day"`
	Period    int       `json:"period"`
	Subject   string    `json:"subject"`
	TeacherID string    `json:"teacherId"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s ScheduleSlot) RecordID() string { return s.ID }

func (s ScheduleSlot) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return s.ID, true
	case "class":
		return s.Class, true
	case "day":
		return s.Day, true
	case "period":
		return strconv.Itoa(s.Period), true
	case "subject":
		return s.Subject, true
	case "teacherId":
		return s.TeacherID, true
	case "time":
		return s.Time, true
	}
	return "", false
}

func (s ScheduleSlot) Created(id string, at time.Time) ScheduleSlot {
	s.ID = id
	s.CreatedAt = at
	s.UpdatedAt = at
	return s
}

func (s ScheduleSlot) Updated(at time.Time) ScheduleSlot {
	s.UpdatedAt = at
	return s
}
