package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite" {
		// a single writer avoids SQLITE_BUSY between the batch transaction and readers
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		sequence INTEGER NOT NULL DEFAULT 0,
		payload JSON NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_items_collection_sequence ON items(collection, sequence);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) FetchCollection(ctx context.Context, collection string) ([]domain.OrderedItem, error) {
	// rowid keeps insertion order for equal sequences
	query := `SELECT id, sequence, payload FROM items WHERE collection = ? ORDER BY sequence ASC, rowid ASC`

	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderedItem{}
	for rows.Next() {
		var item domain.OrderedItem
		var payloadJSON []byte
		if err := rows.Scan(&item.ID, &item.Sequence, &payloadJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadJSON, &item.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) BatchUpdateSequences(ctx context.Context, collection string, updates []domain.SequenceUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE items SET sequence = ?, updated_at = ? WHERE collection = ? AND id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, u := range updates {
		res, err := stmt.ExecContext(ctx, u.Sequence, now, collection, u.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// the whole batch is rolled back
			return apperr.Newf(apperr.CodeNotFound, "item %s not found in %s", u.ID, collection)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, collection string, sequence int, payload domain.Payload) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	query := `INSERT INTO items (id, collection, sequence, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, collection, sequence, string(payloadJSON), now, now); err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, collection, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE collection = ? AND id = ?`, collection, id)
	return err
}

func (r *SQLiteRepository) UpdatePayload(ctx context.Context, collection, id string, payload domain.Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `UPDATE items SET payload = ?, updated_at = ? WHERE collection = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query, string(payloadJSON), time.Now().UTC(), collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Newf(apperr.CodeNotFound, "item %s not found in %s", id, collection)
	}
	return nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Document, error) {
	query := `SELECT collection, id, sequence, payload FROM items ORDER BY collection, sequence, rowid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var d domain.Document
		var payloadJSON []byte
		if err := rows.Scan(&d.Collection, &d.ID, &d.Sequence, &payloadJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadJSON, &d.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Restore upserts documents by id in one transaction and returns how many were written.
func (r *SQLiteRepository) Restore(ctx context.Context, docs []domain.Document) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, collection, sequence, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			sequence = excluded.sequence,
			payload = excluded.payload,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	count := 0
	for _, d := range docs {
		if d.ID == "" || d.Collection == "" {
			return 0, apperr.New(apperr.CodeValidation, "document without id or collection")
		}
		payloadJSON, err := json.Marshal(d.Payload)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Collection, d.Sequence, string(payloadJSON), now, now); err != nil {
			return 0, fmt.Errorf("restore %s: %w", d.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure interface compliance
var _ ports.DocumentStore = (*SQLiteRepository)(nil)
