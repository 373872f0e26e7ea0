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

const prayerColumns = `id, title, description, category, priority, status,
	answered_at, answered_note, created_at, updated_at`

// PrayerRepository persists prayer requests relationally: one row per
// request plus an append-only prayer_updates child table, replacing the
// serialized-blob storage the records were migrated from.
type PrayerRepository struct {
	gw *Gateway
}

// NewPrayerRepository creates a PrayerRepository on the given gateway.
func NewPrayerRepository(gw *Gateway) *PrayerRepository {
	return &PrayerRepository{gw: gw}
}

// PrayerFilter narrows List results. Nil fields match everything.
type PrayerFilter struct {
	Status   *types.PrayerStatus
	Category *types.PrayerCategory
}

// PrayerPatch carries a partial update; nil fields are left unchanged.
type PrayerPatch struct {
	Title       *string
	Description *string
	Category    *types.PrayerCategory
	Priority    *types.PrayerPriority
}

func scanPrayer(scanner interface{ Scan(...any) error }) (*types.PrayerRequest, error) {
	var (
		p                          types.PrayerRequest
		category, priority, status string
		answeredAt                 sql.NullString
		answeredNote               sql.NullString
		created, updated           string
	)

	err := scanner.Scan(&p.ID, &p.Title, &p.Description, &category, &priority,
		&status, &answeredAt, &answeredNote, &created, &updated)
	if err != nil {
		return nil, err
	}

	p.Category = types.PrayerCategory(category)
	if !p.Category.Valid() {
		return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("unknown category %q", category)}
	}
	p.Priority = types.PrayerPriority(priority)
	if !p.Priority.Valid() {
		return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("unknown priority %q", priority)}
	}
	p.Status = types.PrayerStatus(status)
	if !p.Status.Valid() {
		return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("unknown status %q", status)}
	}

	if answeredAt.Valid {
		t, err := time.Parse(time.RFC3339, answeredAt.String)
		if err != nil {
			return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("answered_at: %w", err)}
		}
		p.AnsweredAt = &t
	}
	if answeredNote.Valid {
		p.AnsweredNote = &answeredNote.String
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("created_at: %w", err)}
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, &DecodeError{Entity: "prayer request", Err: fmt.Errorf("updated_at: %w", err)}
	}

	return &p, nil
}

// Create inserts a new prayer request. Status defaults to active and a
// missing id is assigned a fresh ULID.
func (r *PrayerRepository) Create(ctx context.Context, p *types.PrayerRequest) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	if p.Status == "" {
		p.Status = types.PrayerStatusActive
	}
	if p.Priority == "" {
		p.Priority = types.PrayerPriorityNormal
	}
	if p.Category == "" {
		p.Category = types.PrayerCategoryOther
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var answeredAt any
	if p.AnsweredAt != nil {
		answeredAt = p.AnsweredAt.UTC().Format(time.RFC3339)
	}

	_, err := r.gw.Exec(ctx, `
		INSERT INTO prayer_requests (id, title, description, category, priority,
			status, answered_at, answered_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, string(p.Category), string(p.Priority),
		string(p.Status), answeredAt, p.AnsweredNote,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	// Replayed records (legacy import) can carry an existing updates list.
	for _, u := range p.Updates {
		createdAt := u.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := r.gw.Exec(ctx, `
			INSERT INTO prayer_updates (prayer_id, note, created_at)
			VALUES (?, ?, ?)`, p.ID, u.Note, createdAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns one prayer request with its updates in append order, or
// ErrNotFound.
func (r *PrayerRepository) GetByID(ctx context.Context, id string) (*types.PrayerRequest, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT `+prayerColumns+` FROM prayer_requests WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	p, err := scanPrayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.Updates, err = r.loadUpdates(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns prayer requests matching the filter, updates loaded,
// creation order descending. Sorting by priority is the caller's policy.
func (r *PrayerRepository) List(ctx context.Context, filter PrayerFilter) ([]types.PrayerRequest, error) {
	stmt := `SELECT ` + prayerColumns + ` FROM prayer_requests`
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Category != nil {
		where = append(where, "category = ?")
		args = append(args, string(*filter.Category))
	}
	for i, cond := range where {
		if i == 0 {
			stmt += " WHERE " + cond
		} else {
			stmt += " AND " + cond
		}
	}
	stmt += " ORDER BY created_at DESC, id DESC"

	rows, err := r.gw.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prayers []types.PrayerRequest
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, err
		}
		prayers = append(prayers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	for i := range prayers {
		if prayers[i].Updates, err = r.loadUpdates(ctx, prayers[i].ID); err != nil {
			return nil, err
		}
	}
	return prayers, nil
}

func (r *PrayerRepository) loadUpdates(ctx context.Context, prayerID string) ([]types.PrayerNote, error) {
	rows, err := r.gw.Query(ctx, `
		SELECT id, prayer_id, note, created_at FROM prayer_updates
		WHERE prayer_id = ? ORDER BY id ASC`, prayerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []types.PrayerNote
	for rows.Next() {
		var (
			u       types.PrayerNote
			created string
		)
		if err := rows.Scan(&u.ID, &u.PrayerID, &u.Note, &created); err != nil {
			return nil, &DecodeError{Entity: "prayer update", Err: err}
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, &DecodeError{Entity: "prayer update", Err: fmt.Errorf("created_at: %w", err)}
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return updates, nil
}

// Update applies a partial update and bumps updated_at. ErrNotFound when
// the id does not exist.
func (r *PrayerRepository) Update(ctx context.Context, id string, patch PrayerPatch) error {
	stmt := "UPDATE prayer_requests SET updated_at = ?"
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if patch.Title != nil {
		stmt += ", title = ?"
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		stmt += ", description = ?"
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		stmt += ", category = ?"
		args = append(args, string(*patch.Category))
	}
	if patch.Priority != nil {
		stmt += ", priority = ?"
		args = append(args, string(*patch.Priority))
	}
	stmt += " WHERE id = ?"
	args = append(args, id)

	return r.execExpectingRow(ctx, stmt, args...)
}

// MarkAnswered transitions the request to answered, stamping answered_at
// and the optional answered note.
func (r *PrayerRepository) MarkAnswered(ctx context.Context, id string, note *string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return r.execExpectingRow(ctx, `
		UPDATE prayer_requests
		SET status = ?, answered_at = ?, answered_note = ?, updated_at = ?
		WHERE id = ?`,
		string(types.PrayerStatusAnswered), now, note, now, id)
}

// Archive transitions the request to archived.
func (r *PrayerRepository) Archive(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return r.execExpectingRow(ctx, `
		UPDATE prayer_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(types.PrayerStatusArchived), now, id)
}

// AddUpdate appends a timestamped note to the request and bumps its
// updated_at. The updates list is append-only.
func (r *PrayerRepository) AddUpdate(ctx context.Context, id, note string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := r.execExpectingRow(ctx, `
		UPDATE prayer_requests SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return err
	}

	_, err := r.gw.Exec(ctx, `
		INSERT INTO prayer_updates (prayer_id, note, created_at)
		VALUES (?, ?, ?)`, id, note, now)
	return err
}

// Delete hard-deletes the request; its updates cascade.
func (r *PrayerRepository) Delete(ctx context.Context, id string) error {
	return r.execExpectingRow(ctx, `DELETE FROM prayer_requests WHERE id = ?`, id)
}

func (r *PrayerRepository) execExpectingRow(ctx context.Context, stmt string, args ...any) error {
	res, err := r.gw.Exec(ctx, stmt, args...)
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
