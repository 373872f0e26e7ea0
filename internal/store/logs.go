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

const habitLogColumns = `id, habit_id, date, completed, completed_at, created_at, updated_at`

// HabitLogRepository persists daily completion logs. The upsert is keyed by
// (habit_id, date) server-side; a caller-supplied id is only used when the
// row is first inserted, so duplicate rows for the same day cannot appear
// regardless of call path.
type HabitLogRepository struct {
	gw *Gateway
}

// NewHabitLogRepository creates a HabitLogRepository on the given gateway.
func NewHabitLogRepository(gw *Gateway) *HabitLogRepository {
	return &HabitLogRepository{gw: gw}
}

func scanHabitLog(scanner interface{ Scan(...any) error }) (*types.HabitLog, error) {
	var (
		l                types.HabitLog
		completed        int
		completedAt      sql.NullString
		created, updated string
	)

	err := scanner.Scan(&l.ID, &l.HabitID, &l.Date, &completed, &completedAt, &created, &updated)
	if err != nil {
		return nil, err
	}

	l.Completed = completed != 0
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return nil, &DecodeError{Entity: "habit log", Err: fmt.Errorf("completed_at: %w", err)}
		}
		l.CompletedAt = &t
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, &DecodeError{Entity: "habit log", Err: fmt.Errorf("created_at: %w", err)}
	}
	if l.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, &DecodeError{Entity: "habit log", Err: fmt.Errorf("updated_at: %w", err)}
	}

	return &l, nil
}

// Get returns the log for one habit on one date, or ErrNotFound.
func (r *HabitLogRepository) Get(ctx context.Context, habitID, date string) (*types.HabitLog, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT `+habitLogColumns+` FROM habit_logs
		WHERE habit_id = ? AND date = ?`, habitID, date)
	if err != nil {
		return nil, err
	}

	l, err := scanHabitLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetForDate returns all logs for one calendar date across all habits.
func (r *HabitLogRepository) GetForDate(ctx context.Context, date string) ([]types.HabitLog, error) {
	return r.query(ctx, `
		SELECT `+habitLogColumns+` FROM habit_logs
		WHERE date = ? ORDER BY habit_id ASC`, date)
}

// GetForHabit returns all logs for one habit, newest date first.
func (r *HabitLogRepository) GetForHabit(ctx context.Context, habitID string) ([]types.HabitLog, error) {
	return r.query(ctx, `
		SELECT `+habitLogColumns+` FROM habit_logs
		WHERE habit_id = ? ORDER BY date DESC`, habitID)
}

// GetForDateRange returns logs with date within [start, end] inclusive,
// date ascending.
func (r *HabitLogRepository) GetForDateRange(ctx context.Context, start, end string) ([]types.HabitLog, error) {
	return r.query(ctx, `
		SELECT `+habitLogColumns+` FROM habit_logs
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, habit_id ASC`, start, end)
}

func (r *HabitLogRepository) query(ctx context.Context, stmt string, args ...any) ([]types.HabitLog, error) {
	rows, err := r.gw.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []types.HabitLog
	for rows.Next() {
		l, err := scanHabitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return logs, nil
}

// Upsert inserts or updates the log for (l.HabitID, l.Date). On conflict
// the completion state, completed_at, and updated_at are replaced; the
// existing row keeps its id and created_at. A log without an id is
// assigned a fresh ULID for the insert case.
func (r *HabitLogRepository) Upsert(ctx context.Context, l *types.HabitLog) error {
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = ulid.Make().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	var completedAt any
	if l.CompletedAt != nil {
		completedAt = l.CompletedAt.UTC().Format(time.RFC3339)
	}

	_, err := r.gw.Exec(ctx, `
		INSERT INTO habit_logs (id, habit_id, date, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		l.ID, l.HabitID, l.Date, boolToInt(l.Completed), completedAt,
		l.CreatedAt.Format(time.RFC3339), l.UpdatedAt.Format(time.RFC3339))
	return err
}

// Delete removes the log for one habit on one date.
func (r *HabitLogRepository) Delete(ctx context.Context, habitID, date string) error {
	res, err := r.gw.Exec(ctx, `
		DELETE FROM habit_logs WHERE habit_id = ? AND date = ?`, habitID, date)
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

// GetDailyStatsForRange joins logs to active habits of the given frequency
// and returns, for each date in [start, end] that has logs, the number of
// habits completed that day and the total habit count for the frequency.
// Dates without logs are absent; callers fill gaps.
func (r *HabitLogRepository) GetDailyStatsForRange(ctx context.Context, start, end string, freq types.Frequency) ([]types.DailyStat, error) {
	rows, err := r.gw.Query(ctx, `
		SELECT l.date,
		       COUNT(DISTINCT CASE WHEN l.completed = 1 THEN l.habit_id END) AS completed,
		       (SELECT COUNT(*) FROM habits WHERE frequency = ? AND is_active = 1) AS total
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.frequency = ? AND h.is_active = 1 AND l.date >= ? AND l.date <= ?
		GROUP BY l.date
		ORDER BY l.date ASC`,
		string(freq), string(freq), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []types.DailyStat
	for rows.Next() {
		var s types.DailyStat
		if err := rows.Scan(&s.Date, &s.Completed, &s.Total); err != nil {
			return nil, &DecodeError{Entity: "daily stat", Err: err}
		}
		s.Percentage = types.Percentage(s.Completed, s.Total)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return stats, nil
}

// CountCompletedInRange counts completed log rows in [start, end] belonging
// to active habits of the given frequency.
func (r *HabitLogRepository) CountCompletedInRange(ctx context.Context, start, end string, freq types.Frequency) (int, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.frequency = ? AND h.is_active = 1
		  AND l.completed = 1 AND l.date >= ? AND l.date <= ?`,
		string(freq), start, end)
	if err != nil {
		return 0, err
	}

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountDistinctCompletedHabits counts the habits of the given frequency
// with at least one completed log in [start, end]; multiple logs for one
// habit count once.
func (r *HabitLogRepository) CountDistinctCompletedHabits(ctx context.Context, start, end string, freq types.Frequency) (int, error) {
	row, err := r.gw.QueryRow(ctx, `
		SELECT COUNT(DISTINCT l.habit_id)
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.frequency = ? AND h.is_active = 1
		  AND l.completed = 1 AND l.date >= ? AND l.date <= ?`,
		string(freq), start, end)
	if err != nil {
		return 0, err
	}

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
