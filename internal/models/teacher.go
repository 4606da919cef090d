package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Contact     string    `json:"contact"`
	JoiningDate string    `json:"joiningDate"`
	Salary      float64   `json:"salary"`
	Photo       *string   `json:"photo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t Teacher) RecordID() string { return t.ID }

func (t Teacher) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return t.ID, true
	case "name":
		return t.Name, true
	case "subject":
		return t.Subject, true
	case "contact":
		return t.Contact, true
	}
	return "", false
}

func (t Teacher) Created(id string, at time.Time) Teacher {
	t.ID = id
	t.CreatedAt = at
	t.UpdatedAt = at
	return t
}

func (t Teacher) Updated(at time.Time) Teacher {
	t.UpdatedAt = at
	return t
}

// Staff represents non-teaching personnel.
type Staff struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Contact    string    `json:"contact"`
	Salary     float64   `json:"salary"`
	JoinDate   string    `json:"joinDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s Staff) RecordID() string { return s.ID }

func (s Staff) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return s.ID, true
	case "name":
		return s.Name, true
	case "role":
		return s.Role, true
	case "department":
		return s.Department, true
	case "contact":
		return s.Contact, true
	}
	return "", false
}

func (s Staff) Created(id string, at time.Time) Staff {
	s.ID = id
	s.CreatedAt = at
	s.UpdatedAt = at
	return s
}

func (s Staff) Updated(at time.Time) Staff {
	s.UpdatedAt = at
	return s
}
