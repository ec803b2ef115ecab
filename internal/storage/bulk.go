package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ExportAll reads documents, templates and settings inside one transaction so
// the three collections are consistent with each other.
func (s *Store) ExportAll(ctx context.Context) (Snapshot, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning export transaction: %w", err)
	}
	defer tx.Rollback()

	var snap Snapshot
	if snap.Documents, err = scanRecords(ctx, tx, Documents); err != nil {
		return Snapshot{}, err
	}
	if snap.Templates, err = scanRecords(ctx, tx, Templates); err != nil {
		return Snapshot{}, err
	}

	var settings string
	err = tx.QueryRowContext(ctx, "SELECT data FROM settings WHERE id = ?", SettingsKey).Scan(&settings)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, fmt.Errorf("reading settings: %w", err)
	default:
		snap.Settings = []byte(settings)
	}

	return snap, nil
}

// ImportAll replaces the documents and templates collections with the
// snapshot's contents, and the settings record when the snapshot carries one.
// Everything happens in a single transaction: on any error the store is left
// exactly as it was before the call.
func (s *Store) ImportAll(ctx context.Context, snap Snapshot) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	targets := []Collection{Documents, Templates}
	if snap.Settings != nil {
		targets = append(targets, Settings)
	}
	for _, c := range targets {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(c)); err != nil {
			return fmt.Errorf("clearing %s: %w", c, err)
		}
	}

	if err := putAll(ctx, tx, Documents, snap.Documents); err != nil {
		return err
	}
	if err := putAll(ctx, tx, Templates, snap.Templates); err != nil {
		return err
	}
	if snap.Settings != nil {
		if err := putRecord(ctx, tx, Settings, Record{ID: SettingsKey, Data: snap.Settings}); err != nil {
			return fmt.Errorf("writing settings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

func putAll(ctx context.Context, tx *sql.Tx, c Collection, records []Record) error {
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("importing %s: record %d has no id", c, i)
		}
		if err := putRecord(ctx, tx, c, r); err != nil {
			return fmt.Errorf("importing %s/%s: %w", c, r.ID, err)
		}
	}
	return nil
}
