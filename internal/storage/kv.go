package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Get decodes the record stored under id in c into out.
func (s *Store) Get(ctx context.Context, c Collection, id string, out any) error {
	if err := c.validate(); err != nil {
		return err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM "+string(c)+" WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", c, id, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", c, id, err)
	}
	return nil
}

// GetAll returns every record body in c. The order is unspecified.
func (s *Store) GetAll(ctx context.Context, c Collection) ([]json.RawMessage, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	records, err := scanRecords(ctx, s.db, c)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = r.Data
	}
	return out, nil
}

// Put inserts or replaces the record stored under id in c.
func (s *Store) Put(ctx context.Context, c Collection, id string, v any) error {
	if err := c.validate(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("putting into %s: empty id", c)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", c, id, err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := putRecord(ctx, s.db, c, Record{ID: id, Data: data}); err != nil {
		return fmt.Errorf("writing %s/%s: %w", c, id, err)
	}
	return nil
}

// Delete removes the record stored under id in c. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, c Collection, id string) error {
	if err := c.validate(); err != nil {
		return err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+string(c)+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", c, id, err)
	}
	return nil
}

// GetSettings decodes the singleton settings record into out.
func (s *Store) GetSettings(ctx context.Context, out any) error {
	return s.Get(ctx, Settings, SettingsKey, out)
}

// PutSettings replaces the singleton settings record.
func (s *Store) PutSettings(ctx context.Context, v any) error {
	return s.Put(ctx, Settings, SettingsKey, v)
}

// Count returns the number of records in c.
func (s *Store) Count(ctx context.Context, c Collection) (int, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+string(c)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c, err)
	}
	return n, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func putRecord(ctx context.Context, q querier, c Collection, r Record) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO `+string(c)+` (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.ID, string(r.Data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func scanRecords(ctx context.Context, q querier, c Collection) ([]Record, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, data FROM "+string(c))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c, err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c, err)
		}
		results = append(results, Record{ID: id, Data: json.RawMessage(data)})
	}
	return results, rows.Err()
}
