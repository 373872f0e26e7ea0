package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vesperhq/vesper/internal/types"
)

// GratitudeRepository persists gratitude entries and their ordered items.
// Items are stored in a child table tagged with an explicit ordinal so the
// list order survives reads.
type GratitudeRepository struct {
	gw *Gateway
}

// NewGratitudeRepository creates a GratitudeRepository on the given gateway.
func NewGratitudeRepository(gw *Gateway) *GratitudeRepository {
	return &GratitudeRepository{gw: gw}
}

func scanGratitudeEntry(scanner interface{ Scan(...any) error }) (*types.GratitudeEntry, error) {
	var (
		e                types.GratitudeEntry
		created, updated string
	)

	err := scanner.Scan(&e.ID, &e.Date, &created, &updated)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, &DecodeError{Entity: "gratitude entry", Err: fmt.Errorf("created_at: %w", err)}
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, &DecodeError{Entity: "gratitude entry", Err: fmt.Errorf("updated_at: %w", err)}
	}

	return &e, nil
}

// GetByDate returns the entry for one calendar date with its items in
// stored order, or ErrNotFound.
func (r *GratitudeRepository) GetByDate(ctx context.Context, date string) (*types.GratitudeEntry, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT id, date, created_at, updated_at
		FROM gratitude_entries WHERE date = ?`, date)
	if err != nil {
		return nil, err
	}

	e, err := scanGratitudeEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if e.Items, err = r.loadItems(ctx, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

// GetByDateRange returns entries with date within [start, end] inclusive,
// date ascending, items loaded.
func (r *GratitudeRepository) GetByDateRange(ctx context.Context, start, end string) ([]types.GratitudeEntry, error) {
	rows, err := r.gw.Query(ctx, `
		SELECT id, date, created_at, updated_at
		FROM gratitude_entries
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.GratitudeEntry
	for rows.Next() {
		e, err := scanGratitudeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	for i := range entries {
		if entries[i].Items, err = r.loadItems(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *GratitudeRepository) loadItems(ctx context.Context, entryID string) ([]string, error) {
	rows, err := r.gw.Query(ctx, `
		SELECT item_text FROM gratitude_items
		WHERE entry_id = ? ORDER BY item_order ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, &DecodeError{Entity: "gratitude item", Err: err}
		}
		items = append(items, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

// Save upserts the entry keyed by date and replaces all of its items in one
// transaction: existing child rows are deleted and the given items are
// reinserted in order, each tagged with its ordinal. The entry keeps its id
// and created_at across saves. An entry without an id gets a fresh ULID.
func (r *GratitudeRepository) Save(ctx context.Context, e *types.GratitudeEntry) error {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	return r.gw.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gratitude_entries (id, date, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET updated_at = excluded.updated_at`,
			e.ID, e.Date, e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}

		// The date row may predate this save with a different id; resolve
		// the canonical id before touching children.
		var entryID string
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM gratitude_entries WHERE date = ?`, e.Date).Scan(&entryID); err != nil {
			return fmt.Errorf("resolve entry id: %w", err)
		}
		e.ID = entryID

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM gratitude_items WHERE entry_id = ?`, entryID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}

		for i, item := range e.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO gratitude_items (entry_id, item_text, item_order)
				VALUES (?, ?, ?)`, entryID, item, i); err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
		}
		return nil
	})
}

// Delete removes the entry for one date; its items cascade.
func (r *GratitudeRepository) Delete(ctx context.Context, date string) error {
	res, err := r.gw.Exec(ctx, `DELETE FROM gratitude_entries WHERE date = ?`, date)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
