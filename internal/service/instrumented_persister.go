package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

// InstrumentedPersister times every load and save of the wrapped persister
// and logs failures.
type InstrumentedPersister struct {
	next    store.Persister
	metrics *MetricsService
	logger  *zap.Logger
}

// NewInstrumentedPersister wraps next.
func NewInstrumentedPersister(next store.Persister, metrics *MetricsService, logger *zap.Logger) *InstrumentedPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedPersister{next: next, metrics: metrics, logger: logger}
}

// Load implements store.Persister.
func (p *InstrumentedPersister) Load(ctx context.Context, kind models.Kind) ([]byte, error) {
	start := time.Now()
	payload, err := p.next.Load(ctx, kind)
	p.metrics.ObserveStore("load", string(kind), time.Since(start), err)
	if err != nil {
		p.logger.Error("collection load failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return payload, err
}

// Save implements store.Persister.
func (p *InstrumentedPersister) Save(ctx context.Context, docs ...store.Document) error {
	kinds := make([]string, len(docs))
	size := 0
	for i, doc := range docs {
		kinds[i] = string(doc.Kind)
		size += len(doc.Payload)
	}
	label := strings.Join(kinds, ",")
	start := time.Now()
	err := p.next.Save(ctx, docs...)
	duration := time.Since(start)
	p.metrics.ObserveStore("save", label, duration, err)
	if err != nil {
		p.logger.Error("collection save failed", zap.String("kinds", label), zap.Error(err))
		return err
	}
	p.logger.Debug("collections saved", zap.String("kinds", label), zap.Int("bytes", size), zap.Duration("duration", duration))
	return nil
}
