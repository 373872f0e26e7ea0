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

const habitColumns = `id, name, icon, frequency, reminder_time, streak,
	last_completed_date, is_active, is_default, created_at, updated_at`

// HabitRepository persists habits. Save is the sole write path for habit
// rows; callers never issue raw inserts or updates.
type HabitRepository struct {
	gw *Gateway
}

// NewHabitRepository creates a HabitRepository on the given gateway.
func NewHabitRepository(gw *Gateway) *HabitRepository {
	return &HabitRepository{gw: gw}
}

// scanHabit maps a row onto a Habit, coercing integer booleans and
// validating enum and timestamp fields at the boundary.
func scanHabit(scanner interface{ Scan(...any) error }) (*types.Habit, error) {
	var (
		h                types.Habit
		frequency        string
		reminderTime     sql.NullString
		lastCompleted    sql.NullString
		isActive, isDflt int
		created, updated string
	)

	err := scanner.Scan(
		&h.ID, &h.Name, &h.Icon, &frequency, &reminderTime, &h.Streak,
		&lastCompleted, &isActive, &isDflt, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	h.Frequency = types.Frequency(frequency)
	if !h.Frequency.Valid() {
		return nil, &DecodeError{Entity: "habit", Err: fmt.Errorf("unknown frequency %q", frequency)}
	}
	if reminderTime.Valid {
		h.ReminderTime = &reminderTime.String
	}
	if lastCompleted.Valid {
		h.LastCompletedDate = &lastCompleted.String
	}
	h.IsActive = isActive != 0
	h.IsDefault = isDflt != 0

	if h.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, &DecodeError{Entity: "habit", Err: fmt.Errorf("created_at: %w", err)}
	}
	if h.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, &DecodeError{Entity: "habit", Err: fmt.Errorf("updated_at: %w", err)}
	}

	return &h, nil
}

// GetAll returns all habits ordered by creation time ascending.
func (r *HabitRepository) GetAll(ctx context.Context) ([]types.Habit, error) {
	return r.query(ctx, `
		SELECT `+habitColumns+` FROM habits ORDER BY created_at ASC, id ASC`)
}

// GetByID returns the habit with the given id or ErrNotFound.
func (r *HabitRepository) GetByID(ctx context.Context, id string) (*types.Habit, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// GetByFrequency returns habits with the given frequency in creation order.
func (r *HabitRepository) GetByFrequency(ctx context.Context, freq types.Frequency) ([]types.Habit, error) {
	return r.query(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE frequency = ?
		ORDER BY created_at ASC, id ASC`, string(freq))
}

func (r *HabitRepository) query(ctx context.Context, stmt string, args ...any) ([]types.Habit, error) {
	rows, err := r.gw.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []types.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return habits, nil
}

// Save upserts the habit keyed by id. An existing row has all mutable
// fields and updated_at replaced; created_at is preserved. A habit without
// an id is assigned a fresh ULID. The habit's timestamps are updated in
// place to mirror what was written.
func (r *HabitRepository) Save(ctx context.Context, h *types.Habit) error {
	now := time.Now().UTC()
	if h.ID == "" {
		h.ID = ulid.Make().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	_, err := r.gw.Exec(ctx, `
		INSERT INTO habits (id, name, icon, frequency, reminder_time, streak,
			last_completed_date, is_active, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			frequency = excluded.frequency,
			reminder_time = excluded.reminder_time,
			streak = excluded.streak,
			last_completed_date = excluded.last_completed_date,
			is_active = excluded.is_active,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at`,
		h.ID, h.Name, h.Icon, string(h.Frequency), h.ReminderTime, h.Streak,
		h.LastCompletedDate, boolToInt(h.IsActive), boolToInt(h.IsDefault),
		h.CreatedAt.Format(time.RFC3339), h.UpdatedAt.Format(time.RFC3339))
	return err
}

// Delete removes the habit row; the habit's logs go with it via the
// ON DELETE CASCADE foreign key. Returns ErrNotFound for an unknown id.
func (r *HabitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.gw.Exec(ctx, `DELETE FROM habits WHERE id = ?`, id)
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
