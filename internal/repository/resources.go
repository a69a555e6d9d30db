package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresResourceRepository persists every domain resource as a JSON
// document keyed by resource kind and a server-assigned id.
type PostgresResourceRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresResourceRepository creates a repository over the given *sql.DB.
func NewPostgresResourceRepository(db *sql.DB) *PostgresResourceRepository {
	return &PostgresResourceRepository{DB: db}
}

// List returns all live documents of the given kind in id order, with the
// id merged into each document.
func (r *PostgresResourceRepository) List(ctx context.Context, kind string) ([]map[string]any, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, data FROM resources WHERE kind = $1 AND deleted = false ORDER BY id
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	docs := []map[string]any{}
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		doc, err := decodeDoc(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}
	return docs, nil
}

// Get fetches one live document by kind and id.
func (r *PostgresResourceRepository) Get(ctx context.Context, kind string, id int64) (map[string]any, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT data FROM resources WHERE kind = $1 AND id = $2 AND deleted = false
	`, kind, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return decodeDoc(id, raw)
}

// Insert stores a new document and returns it with the assigned id.
func (r *PostgresResourceRepository) Insert(ctx context.Context, kind string, doc map[string]any) (map[string]any, error) {
	delete(doc, "id")
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("Insert marshal: %w", err)
	}
	var id int64
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO resources (kind, data) VALUES ($1, $2) RETURNING id
	`, kind, raw).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("Insert: %w", err)
	}
	doc["id"] = id
	return doc, nil
}

// Update merges patch into the stored document and returns the result.
// Unknown ids yield ErrNotFound.
func (r *PostgresResourceRepository) Update(ctx context.Context, kind string, id int64, patch map[string]any) (map[string]any, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowContext(ctx, `
		SELECT data FROM resources WHERE kind = $1 AND id = $2 AND deleted = false FOR UPDATE
	`, kind, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Update select: %w", err)
	}

	doc, err := decodeDoc(id, raw)
	if err != nil {
		return nil, err
	}
	for key, val := range patch {
		if key == "id" {
			continue
		}
		doc[key] = val
	}

	stored := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != "id" {
			stored[k] = v
		}
	}
	updated, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("Update marshal: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE resources SET data = $1 WHERE kind = $2 AND id = $3
	`, updated, kind, id); err != nil {
		return nil, fmt.Errorf("Update exec: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update commit: %w", err)
	}
	return doc, nil
}

// Delete soft-deletes the document. Unknown ids yield ErrNotFound.
func (r *PostgresResourceRepository) Delete(ctx context.Context, kind string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE resources SET deleted = true, deleted_at = now()
		 WHERE kind = $1 AND id = $2 AND deleted = false
	`, kind, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeDoc(id int64, raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %d: %w", id, err)
	}
	doc["id"] = id
	return doc, nil
}
