package models

import (
	"encoding/json"
	"time"
)

// RecycleEntry is a soft-deleted record waiting in the recycle bin.
type RecycleEntry struct {
	EntryID       string          `json:"entryId"`
	Kind          Kind            `json:"kind"`
	RecordID      string          `json:"recordId"`
	Record        json.RawMessage `json:"record"`
	DeletedAt     time.Time       `json:"deletedAt"`
	ParentEntryID *string         `json:"parentEntryId,omitempty"`
}

// DirectoryOptions are the distinct values offered by list filters.
type DirectoryOptions struct {
	Classes     []string `json:"classes"`
	Sections    []string `json:"sections"`
	Subjects    []string `json:"subjects"`
	Departments []string `json:"departments"`
}
