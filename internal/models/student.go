package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"studentId"`
	Name             string    `json:"name"`
	DOB              string    `json:"dob"`
	Class            string    `json:"class"`
	Section          string    `json:"section"`
	RollNo           string    `json:"rollNo"`
	ParentName       string    `json:"parentName"`
	ParentContact    string    `json:"parentContact"`
	Address          string    `json:"address"`
	BloodGroup       string    `json:"bloodGroup"`
	EmergencyContact string    `json:"emergencyContact"`
	Photo            *string   `json:"photo,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// RecordID returns the primary key.
func (s Student) RecordID() string { return s.ID }

// Lookup exposes filterable fields by their JSON name.
func (s Student) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return s.ID, true
	case "studentId":
		return s.StudentID, true
	case "name":
		return s.Name, true
	case "class":
		return s.Class, true
	case "section":
		return s.Section, true
	case "rollNo":
		return s.RollNo, true
	case "parentName":
		return s.ParentName, true
	case "bloodGroup":
		return s.BloodGroup, true
	}
	return "", false
}

// Created stamps a new record.
func (s Student) Created(id string, at time.Time) Student {
	s.ID = id
	s.CreatedAt = at
	s.UpdatedAt = at
	return s
}

// Updated refreshes the modification time.
func (s Student) Updated(at time.Time) Student {
	s.UpdatedAt = at
	return s
}
