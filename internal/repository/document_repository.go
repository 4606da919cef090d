package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

const documentSchema = `CREATE TABLE IF NOT EXISTS record_collections (
    kind       TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// DocumentRepository stores each record collection as one JSONB row.
type DocumentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the backing table when missing.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, documentSchema); err != nil {
		return fmt.Errorf("create record_collections: %w", err)
	}
	return nil
}

// Load fetches the payload stored for kind. A kind never saved yields nil.
func (r *DocumentRepository) Load(ctx context.Context, kind models.Kind) ([]byte, error) {
	const query = `SELECT payload FROM record_collections WHERE kind = $1`
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, string(kind)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	return payload, nil
}

// Save upserts every document inside one transaction.
func (r *DocumentRepository) Save(ctx context.Context, docs ...store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	const query = `INSERT INTO record_collections (kind, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (kind)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	at := r.now()
	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, query, string(doc.Kind), doc.Payload, at); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save %s: %w", doc.Kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}
