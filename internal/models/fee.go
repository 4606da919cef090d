package models

import (
	"strconv"
	"time"
)

// PaymentStatus tracks the settlement state of one installment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// Valid returns true when the status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	default:
		return false
	}
}

// FeeStructure is the expected fee for a class. Several entries for the same
// class add up (tuition, transport, ...).
type FeeStructure struct {
	ID          string    `json:"id"`
	Class       string    `json:"class"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (f FeeStructure) RecordID() string { return f.ID }

func (f FeeStructure) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return f.ID, true
	case "class":
		return f.Class, true
	case "description":
		return f.Description, true
	}
	return "", false
}

func (f FeeStructure) Created(id string, at time.Time) FeeStructure {
	f.ID = id
	f.CreatedAt = at
	f.UpdatedAt = at
	return f
}

func (f FeeStructure) Updated(at time.Time) FeeStructure {
	f.UpdatedAt = at
	return f
}

// FeePayment is a single installment paid (or owed) by a student.
type FeePayment struct {
	ID                string        `json:"id"`
	StudentID         string        `json:"studentId"`
	InstallmentAmount float64       `json:"installmentAmount"`
	PaymentDate       string        `json:"paymentDate"`
	Mode              string        `json:"mode"`
	Status            PaymentStatus `json:"status"`
	ReceiptNo         string        `json:"receiptNo"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func (p FeePayment) RecordID() string { return p.ID }

func (p FeePayment) Lookup(field string) (string, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "studentId":
		return p.StudentID, true
	case "paymentDate":
		return p.PaymentDate, true
	case "mode":
		return p.Mode, true
	case "status":
		return string(p.Status), true
	case "receiptNo":
		return p.ReceiptNo, true
	case "installmentAmount":
		return strconv.FormatFloat(p.InstallmentAmount, 'f', -1, 64), true
	}
	return "", false
}

func (p FeePayment) Created(id string, at time.Time) FeePayment {
	p.ID = id
	p.CreatedAt = at
	p.UpdatedAt = at
	return p
}

func (p FeePayment) Updated(at time.Time) FeePayment {
	p.UpdatedAt = at
	return p
}

// LedgerState classifies a student's balance.
type LedgerState string

const (
	LedgerStateDue     LedgerState = "due"
	LedgerStateSettled LedgerState = "settled"
	LedgerStateCredit  LedgerState = "credit"
)

// LedgerRecords holds the joined rows a ledger was computed from.
type LedgerRecords struct {
	Structures []FeeStructure `json:"structures"`
	Payments   []FeePayment   `json:"payments"`
}

// FeeLedger is the computed fee status for one student. Pending is never
// clamped: a negative value is an overpayment.
type FeeLedger struct {
	StudentID string        `json:"studentId"`
	Class     string        `json:"class"`
	TotalFees float64       `json:"totalFees"`
	Paid      float64       `json:"paid"`
	Pending   float64       `json:"pending"`
	State     LedgerState   `json:"state"`
	Records   LedgerRecords `json:"records"`
}

// FeeSummary aggregates ledgers across students.
type FeeSummary struct {
	Students    int     `json:"students"`
	TotalFees   float64 `json:"totalFees"`
	Collected   float64 `json:"collected"`
	Outstanding float64 `json:"outstanding"`
	Credit      float64 `json:"credit"`
	WithBalance int     `json:"withBalance"`
}
