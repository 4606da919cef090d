package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

// RecycleService lists and restores soft-deleted records.
type RecycleService struct {
	store  *store.Store
	ledger ledgerInvalidator
	logger *zap.Logger
}

// NewRecycleService constructs the service.
func NewRecycleService(st *store.Store, ledger ledgerInvalidator, logger *zap.Logger) *RecycleService {
	if ledger == nil {
		ledger = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecycleService{store: st, ledger: ledger, logger: logger}
}

// List returns bin entries, oldest first; the position is the restore index.
func (s *RecycleService) List(ctx context.Context) []models.RecycleEntry {
	return s.store.ListDeleted()
}

// Restore returns the entry at index, together with the entries cascaded
// from it, to their collections.
func (s *RecycleService) Restore(ctx context.Context, index int) ([]models.RecycleEntry, error) {
	restored, err := s.store.Restore(ctx, index)
	if err != nil {
		return nil, translate(err, "recycle bin entry")
	}
	if touchesLedger(restored) {
		s.ledger.InvalidateAll(ctx)
	}
	if len(restored) > 0 {
		s.logger.Info("records restored",
			zap.String("kind", string(restored[0].Kind)),
			zap.String("record_id", restored[0].RecordID),
			zap.Int("entries", len(restored)),
		)
	}
	return restored, nil
}

func touchesLedger(entries []models.RecycleEntry) bool {
	for _, e := range entries {
		switch e.Kind {
		case models.KindStudent, models.KindFeeStructure, models.KindFeePayment:
			return true
		}
	}
	return false
}
