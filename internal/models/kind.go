package models

// Kind names one durable record collection.
type Kind string

const (
	KindStudent      Kind = "students"
	KindTeacher      Kind = "teachers"
	KindStaff        Kind = "staff"
	KindFeeStructure Kind = "feeStructures"
	KindFeePayment   Kind = "feePayments"
	KindAttendance   Kind = "attendance"
	KindExam         Kind = "exams"
	KindExamResult   Kind = "examResults"
	KindSchedule     Kind = "schedules"
	KindSettings     Kind = "settings"
	KindRecycleBin   Kind = "recycleBin"
)

// Kinds lists every collection in lock order. Multi-collection operations
// must acquire locks following this order.
var Kinds = []Kind{
	KindStudent,
	KindTeacher,
	KindStaff,
	KindFeeStructure,
	KindFeePayment,
	KindAttendance,
	KindExam,
	KindExamResult,
	KindSchedule,
	KindSettings,
	KindRecycleBin,
}

// Valid reports whether k is a known collection.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if known == k {
			return true
		}
	}
	return false
}

// Deletable reports whether records of this kind can be moved to the recycle bin.
func (k Kind) Deletable() bool {
	return k.Valid() && k != KindSettings && k != KindRecycleBin
}

// Order returns the lock position of the kind, or -1 when unknown.
func (k Kind) Order() int {
	for i, known := range Kinds {
		if known == k {
			return i
		}
	}
	return -1
}

// ParseKind maps the URL form of a collection (e.g. "fee-payments") to a Kind.
func ParseKind(raw string) (Kind, bool) {
	switch raw {
	case "students":
		return KindStudent, true
	case "teachers":
		return KindTeacher, true
	case "staff":
		return KindStaff, true
	case "fee-structures", "feeStructures":
		return KindFeeStructure, true
	case "fee-payments", "feePayments", "fee-records", "feeRecords":
		return KindFeePayment, true
	case "attendance":
		return KindAttendance, true
	case "exams":
		return KindExam, true
	case "exam-results", "examResults":
		return KindExamResult, true
	case "schedules":
		return KindSchedule, true
	}
	return "", false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
