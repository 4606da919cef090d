// Package ledger derives fee balances from fee structures and payments. It
// holds no state and never touches storage.
package ledger

import (
	"math"

	"github.com/noah-isme/school-records-api/internal/models"
)

// Compute returns the fee status of student. Structures count when their class
// equals the student's class; every payment made by the student counts
// regardless of status. Amounts are rounded to cents.
func Compute(student models.Student, structures []models.FeeStructure, payments []models.FeePayment) models.FeeLedger {
	records := models.LedgerRecords{
		Structures: make([]models.FeeStructure, 0),
		Payments:   make([]models.FeePayment, 0),
	}
	var total, paid float64
	for _, fs := range structures {
		if fs.Class != student.Class {
			continue
		}
		total += fs.Amount
		records.Structures = append(records.Structures, fs)
	}
	for _, p := range payments {
		if p.StudentID != student.ID {
			continue
		}
		paid += p.InstallmentAmount
		records.Payments = append(records.Payments, p)
	}

	total = round(total)
	paid = round(paid)
	pending := round(total - paid)
	return models.FeeLedger{
		StudentID: student.ID,
		Class:     student.Class,
		TotalFees: total,
		Paid:      paid,
		Pending:   pending,
		State:     stateOf(pending),
		Records:   records,
	}
}

// ComputeAll computes a ledger for every student in one pass over the inputs.
func ComputeAll(students []models.Student, structures []models.FeeStructure, payments []models.FeePayment) []models.FeeLedger {
	byClass := make(map[string][]models.FeeStructure)
	for _, fs := range structures {
		byClass[fs.Class] = append(byClass[fs.Class], fs)
	}
	byStudent := make(map[string][]models.FeePayment)
	for _, p := range payments {
		byStudent[p.StudentID] = append(byStudent[p.StudentID], p)
	}
	out := make([]models.FeeLedger, 0, len(students))
	for _, st := range students {
		out = append(out, Compute(st, byClass[st.Class], byStudent[st.ID]))
	}
	return out
}

// Summarize totals ledgers. Outstanding sums positive balances and Credit sums
// overpayments, so the two never cancel out.
func Summarize(ledgers []models.FeeLedger) models.FeeSummary {
	summary := models.FeeSummary{Students: len(ledgers)}
	for _, l := range ledgers {
		summary.TotalFees += l.TotalFees
		summary.Collected += l.Paid
		switch {
		case l.Pending > 0:
			summary.Outstanding += l.Pending
			summary.WithBalance++
		case l.Pending < 0:
			summary.Credit -= l.Pending
		}
	}
	summary.TotalFees = round(summary.TotalFees)
	summary.Collected = round(summary.Collected)
	summary.Outstanding = round(summary.Outstanding)
	summary.Credit = round(summary.Credit)
	return summary
}

func stateOf(pending float64) models.LedgerState {
	switch {
	case pending == 0:
		return models.LedgerStateSettled
	case pending < 0:
		return models.LedgerStateCredit
	default:
		return models.LedgerStateDue
	}
}

func round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
