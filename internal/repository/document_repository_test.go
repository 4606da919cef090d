package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

func newDocumentRepoMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	repo := NewDocumentRepository(sqlxDB)
	repo.now = func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) }
	return repo, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestDocumentRepositoryLoad(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[{"id":"1"}]`))
	mock.ExpectQuery("SELECT payload FROM record_collections").
		WithArgs("students").
		WillReturnRows(rows)

	payload, err := repo.Load(context.Background(), models.KindStudent)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryLoadMissing(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT payload FROM record_collections").
		WithArgs("teachers").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	payload, err := repo.Load(context.Background(), models.KindTeacher)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDocumentRepositorySaveInOneTransaction(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()
	at := repo.now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO record_collections").
		WithArgs("students", []byte(`[]`), at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO record_collections").
		WithArgs("recycleBin", []byte(`[{"entryId":"e1"}]`), at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Save(context.Background(),
		store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)},
		store.Document{Kind: models.KindRecycleBin, Payload: []byte(`[{"entryId":"e1"}]`)},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositorySaveRollsBack(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO record_collections").
		WithArgs("students", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO record_collections").
		WithArgs("feePayments", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(),
		store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)},
		store.Document{Kind: models.KindFeePayment, Payload: []byte(`[]`)},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feePayments")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryEnsureSchema(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS record_collections").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestDocumentRepositoryWorksAsPersister(t *testing.T) {
	repo, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	for _, kind := range models.Kinds {
		mock.ExpectQuery("SELECT payload FROM record_collections").
			WithArgs(string(kind)).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	}
	s := store.New(repo, models.Settings{})
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
