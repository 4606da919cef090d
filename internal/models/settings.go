package models

import "time"

// SchoolInfo is printed on receipts and ID cards.
type SchoolInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Logo    string `json:"logo,omitempty"`
}

// Preferences tune presentation defaults.
type Preferences struct {
	Currency      string `json:"currency"`
	AcademicYear  string `json:"academicYear"`
	DateFormat    string `json:"dateFormat"`
	ReceiptPrefix string `json:"receiptPrefix"`
}

// Security holds session related knobs consumed by the boundary layer.
type Security struct {
	SessionTimeoutMinutes  int  `json:"sessionTimeoutMinutes"`
	RequireStrongPasswords bool `json:"requireStrongPasswords"`
}

// Settings is the process-wide configuration singleton.
type Settings struct {
	SchoolInfo  SchoolInfo  `json:"schoolInfo"`
	Preferences Preferences `json:"preferences"`
	Security    Security    `json:"security"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
