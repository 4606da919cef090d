package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func newFeeFixture(t *testing.T) (*FeeService, *StudentService, *memoryCacheRepo) {
	t.Helper()
	st, _ := newRecordStore(t)
	repo := newMemoryCacheRepo()
	cache := NewLedgerCache(NewCacheService(repo, nil, time.Minute, nil, true), time.Minute)
	return NewFeeService(st, cache, nil, nil), NewStudentService(st, cache, nil, nil), repo
}

func TestFeeServiceComputeFeeStatus(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")

	_, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 800, Description: "Tuition"})
	require.NoError(t, err)
	_, err = fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 200, Description: "Transport"})
	require.NoError(t, err)
	_, err = fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "6", Amount: 999})
	require.NoError(t, err)
	_, err = fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 400})
	require.NoError(t, err)

	ledger, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, ledger.TotalFees)
	assert.Equal(t, 400.0, ledger.Paid)
	assert.Equal(t, 600.0, ledger.Pending)
	assert.Equal(t, models.LedgerStateDue, ledger.State)
	assert.Len(t, ledger.Records.Structures, 2)
	assert.Len(t, ledger.Records.Payments, 1)

	_, err = fees.ComputeFeeStatus(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestFeeServiceCreatePaymentDefaults(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")
	fees.clock = func() time.Time { return time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC) }

	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 250})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-15", payment.PaymentDate)
	assert.Equal(t, "cash", payment.Mode)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.Regexp(t, `^RCT\d+$`, payment.ReceiptNo)

	second, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 250})
	require.NoError(t, err)
	assert.NotEqual(t, payment.ReceiptNo, second.ReceiptNo)
}

func TestFeeServiceReceiptPrefixFromSettings(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")
	_, err := NewSettingsService(fees.store, nil, nil).Update(ctx, UpdateSettingsRequest{Preferences: &PreferencesPatch{ReceiptPrefix: strPtr("GV")}})
	require.NoError(t, err)

	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 10})
	require.NoError(t, err)
	assert.Regexp(t, `^GV\d+$`, payment.ReceiptNo)
}

func TestFeeServiceCreatePaymentValidation(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")

	_, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: "ghost", InstallmentAmount: 10})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 0})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 10, Mode: "barter"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: -1})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestFeeServiceLedgerCacheInvalidation(t *testing.T) {
	fees, students, repo := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")
	structure, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 1000})
	require.NoError(t, err)

	first, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, first.Pending)
	require.True(t, repo.has(ledgerKey(student.ID)))

	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: student.ID, InstallmentAmount: 300})
	require.NoError(t, err)
	assert.False(t, repo.has(ledgerKey(student.ID)))

	second, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 700.0, second.Pending)

	_, err = fees.UpdateStructure(ctx, structure.ID, UpdateFeeStructureRequest{Amount: floatPtr(1200)})
	require.NoError(t, err)
	assert.False(t, repo.has(ledgerKey(student.ID)))
	third, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 900.0, third.Pending)

	require.NoError(t, fees.DeletePayment(ctx, payment.ID))
	fourth, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, fourth.Pending)
}

func TestFeeServiceServesCachedLedger(t *testing.T) {
	fees, students, repo := newFeeFixture(t)
	ctx := context.Background()
	student := seedStudent(t, students, "Asha", "5", "1")

	_, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)

	stale := models.FeeLedger{StudentID: student.ID, Class: "5", TotalFees: 42, Pending: 42, State: models.LedgerStateDue}
	require.NoError(t, repo.Set(ctx, ledgerKey(student.ID), stale, time.Minute))

	cached, err := fees.ComputeFeeStatus(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, cached.TotalFees)
}

func TestFeeServiceUpdatePaymentMovesLedger(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	asha := seedStudent(t, students, "Asha", "5", "1")
	ben := seedStudent(t, students, "Ben", "5", "2")
	_, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 500})
	require.NoError(t, err)
	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: asha.ID, InstallmentAmount: 500})
	require.NoError(t, err)

	ashaLedger, err := fees.ComputeFeeStatus(ctx, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStateSettled, ashaLedger.State)

	_, err = fees.UpdatePayment(ctx, payment.ID, UpdateFeePaymentRequest{StudentID: &ben.ID})
	require.NoError(t, err)

	ashaLedger, err = fees.ComputeFeeStatus(ctx, asha.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, ashaLedger.Pending)
	benLedger, err := fees.ComputeFeeStatus(ctx, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, benLedger.Pending)

	_, err = fees.UpdatePayment(ctx, payment.ID, UpdateFeePaymentRequest{StudentID: strPtr("ghost")})
	requireCode(t, err, appErrors.ErrValidation)
}

func TestFeeServiceSummaryAndReceipt(t *testing.T) {
	fees, students, _ := newFeeFixture(t)
	ctx := context.Background()
	asha := seedStudent(t, students, "Asha", "5", "1")
	ben := seedStudent(t, students, "Ben", "5", "2")
	_, err := fees.CreateStructure(ctx, CreateFeeStructureRequest{Class: "5", Amount: 1000})
	require.NoError(t, err)
	payment, err := fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: asha.ID, InstallmentAmount: 1200})
	require.NoError(t, err)
	_, err = fees.CreatePayment(ctx, CreateFeePaymentRequest{StudentID: ben.ID, InstallmentAmount: 100, Status: models.PaymentStatusPending})
	require.NoError(t, err)

	summary, err := fees.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Students)
	assert.Equal(t, 2000.0, summary.TotalFees)
	assert.Equal(t, 1300.0, summary.Collected)
	assert.Equal(t, 900.0, summary.Outstanding)
	assert.Equal(t, 200.0, summary.Credit)
	assert.Equal(t, 1, summary.WithBalance)

	receipt, err := fees.Receipt(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green Valley School", receipt.School.Name)
	assert.Equal(t, asha.ID, receipt.Student.ID)
	assert.Equal(t, -200.0, receipt.Ledger.Pending)
	assert.Equal(t, models.LedgerStateCredit, receipt.Ledger.State)

	_, err = fees.Receipt(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
}
