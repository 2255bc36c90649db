package db

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Kamar-Folarin/listing-sync/internal/errors"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps documents as JSONB rows in a single table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies it
func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate applies the embedded schema migrations
func (s *PostgresStore) Migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BulkInsert inserts all records in one transaction
func (s *PostgresStore) BulkInsert(ctx context.Context, coll models.Collection, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewStoreError("begin", coll.String(), err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, record_id, body)
		VALUES ($1, $2, $3)`)
	if err != nil {
		return 0, errors.NewStoreError("prepare", coll.String(), err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return 0, errors.NewStoreError("encode", coll.String(), err)
		}

		var recordID any
		if id, ok := rec.ID(); ok {
			raw, err := json.Marshal(id)
			if err != nil {
				return 0, errors.NewStoreError("encode", coll.String(), err)
			}
			recordID = string(raw)
		}

		if _, err := stmt.ExecContext(ctx, coll.String(), recordID, string(body)); err != nil {
			return 0, errors.NewStoreError("insert", coll.String(), err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStoreError("commit", coll.String(), err)
	}

	return inserted, nil
}

// DistinctIDs returns the distinct identity values, decoded from JSONB so
// that numbers and strings stay distinguishable
func (s *PostgresStore) DistinctIDs(ctx context.Context, coll models.Collection) ([]any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT record_id FROM documents
		WHERE collection = $1 AND record_id IS NOT NULL`, coll.String())
	if err != nil {
		return nil, errors.NewStoreError("distinct", coll.String(), err)
	}
	defer rows.Close()

	var ids []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.NewStoreError("scan", coll.String(), err)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var id any
		if err := dec.Decode(&id); err != nil {
			return nil, errors.NewStoreError("decode", coll.String(), err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("distinct", coll.String(), err)
	}

	return ids, nil
}

// Ping verifies the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStoreError("ping", "documents", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
