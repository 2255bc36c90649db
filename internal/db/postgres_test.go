package db

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}

	return &PostgresStore{db: db}, mock, cleanup
}

var insertQuery = regexp.QuoteMeta(`INSERT INTO documents (collection, record_id, body)`)

func TestPostgresStore_BulkInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts every record in one transaction", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(insertQuery)
		prep.ExpectExec().
			WithArgs("adverts", "1", `{"id":1,"title":"a"}`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		prep.ExpectExec().
			WithArgs("adverts", `"x2"`, `{"id":"x2"}`).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		n, err := store.BulkInsert(ctx, models.CollectionAdverts, []models.Record{
			{"id": float64(1), "title": "a"},
			{"id": "x2"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("record without id keeps a null identity", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectPrepare(insertQuery).ExpectExec().
			WithArgs("categories", nil, `{"title":"root"}`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		n, err := store.BulkInsert(ctx, models.CollectionCategories, []models.Record{{"title": "root"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("failed insert rolls back", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectPrepare(insertQuery).ExpectExec().
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		n, err := store.BulkInsert(ctx, models.CollectionAdverts, []models.Record{{"id": float64(1)}})
		require.Error(t, err)
		assert.Equal(t, 0, n)
		assert.True(t, apperrors.IsStore(err))
	})

	t.Run("empty batch makes no calls", func(t *testing.T) {
		store, _, cleanup := setupMockStore(t)
		defer cleanup()

		n, err := store.BulkInsert(ctx, models.CollectionAdverts, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestPostgresStore_DistinctIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes numbers and strings", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"record_id"}).
			AddRow([]byte("1")).
			AddRow([]byte(`"42"`)).
			AddRow([]byte("9007199254740993"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT record_id FROM documents`)).
			WithArgs("adverts").
			WillReturnRows(rows)

		ids, err := store.DistinctIDs(ctx, models.CollectionAdverts)
		require.NoError(t, err)
		assert.Equal(t, []any{json.Number("1"), "42", json.Number("9007199254740993")}, ids)
	})

	t.Run("query error", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT record_id FROM documents`)).
			WillReturnError(errors.New("connection refused"))

		_, err := store.DistinctIDs(ctx, models.CollectionAdverts)
		assert.True(t, apperrors.IsStore(err))
	})
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	store := &PostgresStore{db: db}
	mock.ExpectPing().WillReturnError(errors.New("down"))

	err = store.Ping(context.Background())
	assert.True(t, apperrors.IsStore(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
